package paneldata

import (
	"errors"
	"fmt"
)

// This file provides the storage and indexing substrate for multivariate,
// irregularly-observed time-series panels. Data points arrive one at a time
// in arbitrary order; the Store keeps them in arrival order (the "flat index"
// space), maintains a sparse (series, time) coordinate index over them, and
// tracks per-time-step observed masks so inference code can skip missing
// observations without scanning the raw data.

var (
	// ErrIndexOutOfRange is returned for flat-index access outside the raw
	// storage bounds.
	ErrIndexOutOfRange = errors.New("flat index out of range")

	// ErrTimeOutOfRange is returned when a time argument is not below the
	// store's current time dimension.
	ErrTimeOutOfRange = errors.New("time out of range")

	// ErrSelectorSize is returned when a Selector's universe size disagrees
	// with the store's series count.
	ErrSelectorSize = errors.New("selector universe size does not match series count")
)

// DataPoint is the minimal view the Store needs of a stored observation:
// which series it belongs to and the integer time step it was observed at.
// The Store never mutates a point's coordinates after insertion; payload
// access is the concrete type's business.
type DataPoint interface {
	Series() int
	Timestamp() int
}

// ObserverHandle identifies a registered data-change observer so it can be
// removed later.
type ObserverHandle int

type observer struct {
	handle ObserverHandle
	fn     func()
}

// Store is an append-only container for a panel of nseries parallel time
// series. Each data point carries a (series, time) coordinate; the Store
// indexes points both by arrival order (flat index) and by coordinate, and
// keeps one observed-series mask per time step.
//
// The time dimension grows monotonically: it is always one past the largest
// timestamp ever added, and only Clear resets it.
//
// Adding a second point at an already-populated coordinate silently re-points
// the coordinate index at the newer physical entry; the older entry stays in
// raw storage and remains reachable by flat index only.
//
// Store is not safe for concurrent use. Parallel MCMC chains each work on
// their own Clone.
type Store struct {
	nseries       int
	timeDimension int

	// indices[series][time] is the flat index of the corresponding entry in
	// rawData. Only coordinates that exist have an entry.
	indices map[int]map[int]int64

	rawData  []DataPoint
	observed []Selector

	observers  []observer
	nextHandle ObserverHandle
}

// NewStore creates an empty Store over nseries parallel series.
func NewStore(nseries int) (*Store, error) {
	if nseries <= 0 {
		return nil, fmt.Errorf("nseries must be >= 1, got %d", nseries)
	}
	return &Store{
		nseries: nseries,
		indices: make(map[int]map[int]int64),
	}, nil
}

// Nseries returns the fixed number of parallel series.
func (s *Store) Nseries() int {
	return s.nseries
}

// TimeDimension returns 1 + the largest timestamp ever added, or 0 if the
// store is empty (or has been cleared).
func (s *Store) TimeDimension() int {
	return s.timeDimension
}

// TotalSampleSize returns the number of points added since the last Clear.
// Points shadowed by a duplicate-coordinate Add still count.
func (s *Store) TotalSampleSize() int {
	return len(s.rawData)
}

// Add inserts one data point, growing the time dimension and the observed
// masks as needed. Observers are notified after all index and mask state for
// this insertion is in place, so an observer always sees the fully-updated
// store. Add never fails.
func (s *Store) Add(point DataPoint) {
	series, t := point.Series(), point.Timestamp()
	if 1+t > s.timeDimension {
		s.timeDimension = 1 + t
	}
	byTime, ok := s.indices[series]
	if !ok {
		byTime = make(map[int]int64)
		s.indices[series] = byTime
	}
	byTime[t] = int64(len(s.rawData))
	s.rawData = append(s.rawData, point)

	for len(s.observed) <= t {
		s.observed = append(s.observed, NewSelector(s.nseries))
	}
	s.observed[t].Add(series)

	s.notify()
}

// Clear drops all data, indices, and masks, resetting the time dimension to
// zero. The series count and the observer registrations survive. Observers
// are notified once.
func (s *Store) Clear() {
	s.timeDimension = 0
	s.indices = make(map[int]map[int]int64)
	s.rawData = nil
	s.observed = nil
	s.notify()
}

// DataPoint returns the point at the given flat (arrival-order) index.
func (s *Store) DataPoint(flatIndex int64) (DataPoint, error) {
	if flatIndex < 0 || flatIndex >= int64(len(s.rawData)) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)",
			ErrIndexOutOfRange, flatIndex, len(s.rawData))
	}
	return s.rawData[flatIndex], nil
}

// At returns the point currently indexed at (series, time), or (nil, false)
// if that coordinate has never been populated.
func (s *Store) At(series, time int) (DataPoint, bool) {
	idx := s.DataIndex(series, time)
	if idx < 0 {
		return nil, false
	}
	return s.rawData[idx], true
}

// DataIndex returns the flat index of the point at (series, time), or -1 if
// no point exists at that coordinate.
func (s *Store) DataIndex(series, time int) int64 {
	byTime, ok := s.indices[series]
	if !ok {
		return -1
	}
	idx, ok := byTime[time]
	if !ok {
		return -1
	}
	return idx
}

// Observed returns the mask of series observed at the given time step. The
// returned Selector is a snapshot; mutating it does not affect the store.
func (s *Store) Observed(time int) (Selector, error) {
	if time < 0 || time >= len(s.observed) {
		return Selector{}, fmt.Errorf("%w: %d not in [0, %d)",
			ErrTimeOutOfRange, time, len(s.observed))
	}
	return s.observed[time].Clone(), nil
}

// SetObservedStatus overwrites the observed mask at time t. The mask's
// universe size must equal the store's series count, and t must be below the
// current time dimension; on an empty store every t is out of range.
func (s *Store) SetObservedStatus(t int, mask Selector) error {
	if mask.NVarsPossible() != s.nseries {
		return fmt.Errorf("%w: got %d, want %d",
			ErrSelectorSize, mask.NVarsPossible(), s.nseries)
	}
	if t < 0 || t >= len(s.observed) {
		return fmt.Errorf("%w: %d not in [0, %d)",
			ErrTimeOutOfRange, t, len(s.observed))
	}
	s.observed[t] = mask.Clone()
	return nil
}

// AddObserver registers a callback invoked after every structural mutation
// (Add or Clear). Callbacks run synchronously, in registration order. The
// returned handle can be passed to RemoveObserver.
func (s *Store) AddObserver(fn func()) ObserverHandle {
	h := s.nextHandle
	s.nextHandle++
	s.observers = append(s.observers, observer{handle: h, fn: fn})
	return h
}

// RemoveObserver unregisters a previously-added observer. Removing an
// unknown handle is a no-op.
func (s *Store) RemoveObserver(h ObserverHandle) {
	for i, obs := range s.observers {
		if obs.handle == h {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Store) notify() {
	for _, obs := range s.observers {
		obs.fn()
	}
}

// Clone returns a store sharing the same (immutable) data points but with
// independent index, mask, and raw-storage bookkeeping. Observers are not
// carried over; the clone's owner registers its own. This is the
// share-observations, duplicate-mutable-state boundary used for parallel
// chains.
func (s *Store) Clone() *Store {
	cp := &Store{
		nseries:       s.nseries,
		timeDimension: s.timeDimension,
		indices:       make(map[int]map[int]int64, len(s.indices)),
		rawData:       make([]DataPoint, len(s.rawData)),
		observed:      make([]Selector, len(s.observed)),
	}
	for series, byTime := range s.indices {
		m := make(map[int]int64, len(byTime))
		for t, idx := range byTime {
			m[t] = idx
		}
		cp.indices[series] = m
	}
	copy(cp.rawData, s.rawData)
	for i := range s.observed {
		cp.observed[i] = s.observed[i].Clone()
	}
	return cp
}
