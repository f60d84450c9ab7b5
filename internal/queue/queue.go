// Package queue is the authoritative record of devices known to one
// discovery run. It owns the visited set and the FIFO work queue behind a
// single mutex so that check-and-enqueue is atomic: a device key that has
// ever been seen, at any depth, is never enqueued again, which makes the
// traversal a BFS over a graph that may be cyclic.
package queue

import (
	"sync"
	"time"

	"netwalker/internal/domain"
)

// Entry is one unit of traversal work: a device identity waiting to be
// walked at a given depth. Entries are ephemeral, scoped to one run.
type Entry struct {
	Key            domain.Key
	Name           string
	Address        string
	Depth          int
	DiscoveredFrom string
	EnqueuedAt     time.Time

	// Identity hints carried over from the neighbor announcement that
	// discovered this device, available before it is ever connected to.
	Platform     string
	Capabilities []string
}

type tracked struct {
	entry *Entry
	state domain.WalkState
}

// Store is the visited set plus FIFO work queue. All access goes through
// the one mutex; nothing exposes the underlying collections.
type Store struct {
	mu          sync.Mutex
	cond        *sync.Cond
	seen        map[domain.Key]*tracked
	fifo        []*Entry
	outstanding int
	closed      bool
}

// NewStore creates an empty queue store
func NewStore() *Store {
	s := &Store{seen: make(map[domain.Key]*tracked)}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Enqueue registers an entry and queues it for walking, unless its
// normalized key has already been seen. Returns the created entry and true
// on first discovery; nil and false for a duplicate. First discovery wins
// the depth.
func (s *Store) Enqueue(e Entry) (*Entry, bool) {
	key := domain.Normalize(e.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return nil, false
	}

	e.Key = key
	e.Name = domain.ShortName(e.Name)
	e.EnqueuedAt = time.Now()
	s.seen[key] = &tracked{entry: &e, state: domain.WalkStatePending}
	s.fifo = append(s.fifo, &e)
	s.outstanding++
	s.cond.Signal()

	return &e, true
}

// Skip registers a name in the visited set directly in a terminal state,
// without ever queueing it for work. Used for neighbors that are recorded
// but must not be walked (excluded device classes, depth overflow).
// Returns false if the key was already known.
func (s *Store) Skip(name string, depth int, discoveredFrom string, state domain.WalkState) bool {
	key := domain.Normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return false
	}

	s.seen[key] = &tracked{
		entry: &Entry{
			Key:            key,
			Name:           domain.ShortName(name),
			Depth:          depth,
			DiscoveredFrom: discoveredFrom,
			EnqueuedAt:     time.Now(),
		},
		state: state,
	}

	return true
}

// Next blocks until an entry is available, the queue drains, or the store
// is shut down. The returned entry is moved to in-flight. ok is false when
// no more work will ever arrive: every known entry has reached a terminal
// state, so the traversal is complete.
func (s *Store) Next() (e *Entry, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.closed {
			return nil, false
		}
		if len(s.fifo) > 0 {
			e = s.fifo[0]
			s.fifo = s.fifo[1:]
			s.seen[e.Key].state = domain.WalkStateInFlight
			return e, true
		}
		if s.outstanding == 0 {
			// Drained: wake the other waiting workers so they observe
			// the same condition and exit too.
			s.cond.Broadcast()
			return nil, false
		}
		s.cond.Wait()
	}
}

// Finish moves an in-flight entry to the given terminal state. The last
// Finish of a drained queue releases every blocked Next caller.
func (s *Store) Finish(key domain.Key, state domain.WalkState) {
	if !state.Terminal() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.seen[key]
	if !ok || t.state.Terminal() {
		return
	}
	t.state = state
	s.outstanding--
	if s.outstanding == 0 {
		s.cond.Broadcast()
	}
}

// Shutdown releases all blocked Next callers. Pending entries are left
// non-terminal; they simply will not be walked this run.
func (s *Store) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Seen reports whether a name's normalized key is already known
func (s *Store) Seen(name string) bool {
	key := domain.Normalize(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

// State returns the current walk state of a known key
func (s *Store) State(key domain.Key) (domain.WalkState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.seen[key]
	if !ok {
		return "", false
	}
	return t.state, true
}

// Depth returns the assigned discovery depth of a known key
func (s *Store) Depth(key domain.Key) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.seen[key]
	if !ok {
		return 0, false
	}
	return t.entry.Depth, true
}

// Counts returns the number of entries per walk state. Alias entries are
// alternate names of devices counted under their canonical key, so they
// are left out to keep the counts per-device.
func (s *Store) Counts() map[domain.WalkState]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[domain.WalkState]int)
	for _, t := range s.seen {
		if t.state == domain.WalkStateAlias {
			continue
		}
		counts[t.state]++
	}
	return counts
}
