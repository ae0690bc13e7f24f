package gibbs

import (
	"fmt"
	"sync"

	"golang.org/x/exp/rand"
)

// ChainFactory builds the driver for one chain. The chain index is
// zero-based; seed is that chain's independent RNG seed, drawn from the
// master generator. Implementations clone the shared model and sampler here
// so each chain owns all of its mutable state.
type ChainFactory func(chain int, seed uint64) (*Driver, error)

// RunChains runs nchains independent chains of niter sweeps each, one
// goroutine per chain. Per-chain seeds are precomputed from masterSeed
// before any goroutine starts, so chain c always receives the same seed for
// a given masterSeed regardless of scheduling.
//
// After each successful sweep the record callback (if non-nil) is invoked
// with the chain and iteration numbers; it runs on that chain's goroutine,
// so implementations writing shared storage must partition it by chain.
//
// The first error from any chain is returned, wrapped with its chain index;
// the remaining chains still run to completion.
func RunChains(nchains, niter int, masterSeed uint64, factory ChainFactory, record func(chain, iter int)) error {
	if nchains <= 0 {
		return fmt.Errorf("nchains must be > 0, got %d", nchains)
	}
	if factory == nil {
		return fmt.Errorf("chain factory cannot be nil")
	}

	master := rand.New(rand.NewSource(masterSeed))
	seeds := make([]uint64, nchains)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	errs := make([]error, nchains)
	var wg sync.WaitGroup
	wg.Add(nchains)
	for c := 0; c < nchains; c++ {
		go func(c int) {
			defer wg.Done()
			driver, err := factory(c, seeds[c])
			if err != nil {
				errs[c] = fmt.Errorf("chain %d: %w", c, err)
				return
			}
			var perIter func(int)
			if record != nil {
				perIter = func(iter int) { record(c, iter) }
			}
			if err := driver.Run(niter, perIter); err != nil {
				errs[c] = fmt.Errorf("chain %d: %w", c, err)
			}
		}(c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
