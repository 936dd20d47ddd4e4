package quality

import (
	"container/list"
	"sync"
	"time"
)

// Assessor memoizes note assessments under string keys with least-recently-
// used eviction once capacity is reached. Safe for concurrent use.
type Assessor struct {
	mu        sync.Mutex
	capacity  int
	order     *list.List // front = most recently used
	items     map[string]*list.Element
	hits      uint64
	misses    uint64
	evictions uint64

	halfLife time.Duration
	now      func() time.Time
}

type cacheEntry struct {
	key    string
	scores Scores
}

// CacheStats is a snapshot of cache behavior.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	Capacity  int
}

// DefaultCapacity bounds the cache when the caller passes zero.
const DefaultCapacity = 256

// NewAssessor creates an assessor with the given cache capacity and
// freshness half-life.
func NewAssessor(capacity int, halfLife time.Duration) *Assessor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Assessor{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
		halfLife: halfLife,
		now:      time.Now,
	}
}

// Assess returns the scores for key, computing them on first request and
// serving the memoized result thereafter. Computation only happens here;
// constructing the assessor does no work.
func (a *Assessor) Assess(key string, in Input) Scores {
	a.mu.Lock()
	defer a.mu.Unlock()

	if el, ok := a.items[key]; ok {
		a.hits++
		a.order.MoveToFront(el)
		return el.Value.(*cacheEntry).scores
	}

	a.misses++
	scores := Score(in, Params{Now: a.now(), FreshnessHalfLife: a.halfLife})

	a.items[key] = a.order.PushFront(&cacheEntry{key: key, scores: scores})
	if a.order.Len() > a.capacity {
		oldest := a.order.Back()
		a.order.Remove(oldest)
		delete(a.items, oldest.Value.(*cacheEntry).key)
		a.evictions++
	}
	return scores
}

// Compute scores without touching the cache.
func (a *Assessor) Compute(in Input) Scores {
	return Score(in, Params{Now: a.now(), FreshnessHalfLife: a.halfLife})
}

// Invalidate drops a memoized entry.
func (a *Assessor) Invalidate(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if el, ok := a.items[key]; ok {
		a.order.Remove(el)
		delete(a.items, key)
	}
}

// Stats returns a snapshot of cache counters.
func (a *Assessor) Stats() CacheStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return CacheStats{
		Hits:      a.hits,
		Misses:    a.misses,
		Evictions: a.evictions,
		Size:      a.order.Len(),
		Capacity:  a.capacity,
	}
}
