package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwalker/internal/domain"
)

func enqueue(s *Store, name string, depth int, from string) (*Entry, bool) {
	return s.Enqueue(Entry{Name: name, Depth: depth, DiscoveredFrom: from})
}

func TestEnqueueDeduplicatesByNormalizedKey(t *testing.T) {
	s := NewStore()

	e, ok := s.Enqueue(Entry{Name: "SW-A.corp.example.com", Address: "10.0.0.1"})
	require.True(t, ok)
	assert.Equal(t, domain.Key("sw-a"), e.Key)
	assert.Equal(t, "SW-A", e.Name)
	assert.Equal(t, "10.0.0.1", e.Address)

	// Same device under a different spelling is never re-enqueued
	_, ok = enqueue(s, "sw-a (FOX123)", 3, "sw-b")
	assert.False(t, ok)

	depth, found := s.Depth("sw-a")
	require.True(t, found)
	assert.Equal(t, 0, depth, "first discovery depth wins")
}

func TestFIFOOrder(t *testing.T) {
	s := NewStore()
	enqueue(s, "a", 0, "")
	enqueue(s, "b", 0, "")
	enqueue(s, "c", 1, "a")

	for _, want := range []domain.Key{"a", "b", "c"} {
		e, ok := s.Next()
		require.True(t, ok)
		assert.Equal(t, want, e.Key)
	}
}

func TestNextReturnsFalseWhenDrained(t *testing.T) {
	s := NewStore()
	enqueue(s, "a", 0, "")

	e, ok := s.Next()
	require.True(t, ok)

	state, _ := s.State(e.Key)
	assert.Equal(t, domain.WalkStateInFlight, state)

	s.Finish(e.Key, domain.WalkStateWalked)

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestNextBlocksUntilFinishOfInFlightEntry(t *testing.T) {
	s := NewStore()
	enqueue(s, "a", 0, "")

	e, ok := s.Next()
	require.True(t, ok)

	// A second worker blocks: the queue is empty but "a" is still in
	// flight and may yet enqueue neighbors.
	results := make(chan bool, 1)
	go func() {
		_, ok := s.Next()
		results <- ok
	}()

	select {
	case <-results:
		t.Fatal("Next returned while an entry was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	// Finishing the last outstanding entry releases the blocked worker
	s.Finish(e.Key, domain.WalkStateFailed)
	select {
	case ok := <-results:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after queue drained")
	}
}

func TestSkipRecordsTerminalStateWithoutQueueing(t *testing.T) {
	s := NewStore()

	require.True(t, s.Skip("Cisco IP Phone 8851", 1, "sw-a", domain.WalkStateSkippedExcluded))
	assert.False(t, s.Skip("cisco ip phone 8851", 2, "sw-b", domain.WalkStateSkippedExcluded))

	state, ok := s.State(domain.Normalize("Cisco IP Phone 8851"))
	require.True(t, ok)
	assert.Equal(t, domain.WalkStateSkippedExcluded, state)

	// Skipped entries never reach a worker
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestShutdownReleasesWorkers(t *testing.T) {
	s := NewStore()
	enqueue(s, "a", 0, "")
	_, _ = s.Next() // leave "a" in flight so the queue cannot drain

	released := make(chan struct{})
	go func() {
		_, ok := s.Next()
		assert.False(t, ok)
		close(released)
	}()

	s.Shutdown()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not release blocked worker")
	}
}

func TestCounts(t *testing.T) {
	s := NewStore()
	enqueue(s, "a", 0, "")
	enqueue(s, "b", 1, "a")
	s.Skip("phone-1", 1, "a", domain.WalkStateSkippedExcluded)

	e, _ := s.Next()
	s.Finish(e.Key, domain.WalkStateWalked)

	counts := s.Counts()
	assert.Equal(t, 1, counts[domain.WalkStateWalked])
	assert.Equal(t, 1, counts[domain.WalkStatePending])
	assert.Equal(t, 1, counts[domain.WalkStateSkippedExcluded])
}

func TestCountsExcludeAliasClaims(t *testing.T) {
	s := NewStore()
	enqueue(s, "10.0.0.1", 0, "")

	e, _ := s.Next()
	require.True(t, s.Skip("sw-1", 0, "", domain.WalkStateAlias))
	s.Finish(e.Key, domain.WalkStateWalked)

	assert.True(t, s.Seen("sw-1"), "the alias still reserves the name")
	_, added := s.Enqueue(Entry{Name: "sw-1.corp.example.com"})
	assert.False(t, added)

	counts := s.Counts()
	assert.Equal(t, 1, counts[domain.WalkStateWalked], "one device, one count")
	assert.NotContains(t, counts, domain.WalkStateAlias)
}

func TestConcurrentEnqueueSingleWinner(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	wins := make(chan int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(depth int) {
			defer wg.Done()
			if _, ok := enqueue(s, "SW-RACE-1", depth, ""); ok {
				wins <- depth
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	total := 0
	for range wins {
		total++
	}
	assert.Equal(t, 1, total, "exactly one enqueue wins")
}
