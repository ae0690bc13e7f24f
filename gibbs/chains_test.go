package gibbs

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestRunChainsValidation(t *testing.T) {
	factory := func(chain int, seed uint64) (*Driver, error) {
		return NewDriver(&sweepRecorder{}, &sweepRecorder{}, seed)
	}
	if err := RunChains(0, 5, 1, factory, nil); err == nil {
		t.Error("nchains=0: expected error, got nil")
	}
	if err := RunChains(2, 5, 1, nil, nil); err == nil {
		t.Error("nil factory: expected error, got nil")
	}
}

func TestRunChainsRunsEveryChain(t *testing.T) {
	const nchains, niter = 4, 7

	var mu sync.Mutex
	seen := make(map[int]uint64)
	recs := make([]*sweepRecorder, nchains)

	factory := func(chain int, seed uint64) (*Driver, error) {
		mu.Lock()
		seen[chain] = seed
		mu.Unlock()
		rec := &sweepRecorder{}
		recs[chain] = rec
		return NewDriver(rec, rec, seed)
	}

	counts := make([]int, nchains)
	record := func(chain, iter int) { counts[chain]++ }

	if err := RunChains(nchains, niter, 42, factory, record); err != nil {
		t.Fatalf("RunChains failed: %v", err)
	}

	if len(seen) != nchains {
		t.Fatalf("chains started: got %d, want %d", len(seen), nchains)
	}
	distinct := make(map[uint64]bool)
	for _, seed := range seen {
		distinct[seed] = true
	}
	if len(distinct) != nchains {
		t.Errorf("distinct chain seeds: got %d, want %d", len(distinct), nchains)
	}
	for c, rec := range recs {
		// clear + niter full sweeps per chain.
		if got, want := len(rec.calls), 1+3*niter; got != want {
			t.Errorf("chain %d call count: got %d, want %d", c, got, want)
		}
		if counts[c] != niter {
			t.Errorf("chain %d recorded iterations: got %d, want %d", c, counts[c], niter)
		}
	}
}

func TestRunChainsSeedsAreDeterministic(t *testing.T) {
	collect := func() map[int]uint64 {
		var mu sync.Mutex
		seen := make(map[int]uint64)
		factory := func(chain int, seed uint64) (*Driver, error) {
			mu.Lock()
			seen[chain] = seed
			mu.Unlock()
			rec := &sweepRecorder{}
			return NewDriver(rec, rec, seed)
		}
		if err := RunChains(3, 1, 1000, factory, nil); err != nil {
			t.Fatalf("RunChains failed: %v", err)
		}
		return seen
	}

	first := collect()
	second := collect()
	for c, seed := range first {
		if second[c] != seed {
			t.Errorf("chain %d seed not deterministic: %d vs %d", c, seed, second[c])
		}
	}
}

func TestRunChainsReportsChainErrors(t *testing.T) {
	wantErr := errors.New("chain blew up")
	factory := func(chain int, seed uint64) (*Driver, error) {
		rec := &sweepRecorder{}
		if chain == 1 {
			rec.stateErr = wantErr
		}
		return NewDriver(rec, rec, seed)
	}
	err := RunChains(3, 2, 7, factory, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunChains: got %v, want the failing chain's error", err)
	}
	if !strings.Contains(err.Error(), "chain 1") {
		t.Errorf("error %q does not name the failing chain", err)
	}

	factoryErr := errors.New("cannot build driver")
	factory = func(chain int, seed uint64) (*Driver, error) {
		if chain == 0 {
			return nil, factoryErr
		}
		rec := &sweepRecorder{}
		return NewDriver(rec, rec, seed)
	}
	if err := RunChains(2, 2, 7, factory, nil); !errors.Is(err, factoryErr) {
		t.Errorf("RunChains: got %v, want the factory error", err)
	}
}
