package meshing

import (
	"sync"
	"testing"
	"time"

	"tradecraft/internal/world"
)

type recordingSink struct {
	mu       sync.Mutex
	uploaded map[world.ChunkCoord]int
	removed  map[world.ChunkCoord]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		uploaded: make(map[world.ChunkCoord]int),
		removed:  make(map[world.ChunkCoord]bool),
	}
}

func (s *recordingSink) Upload(coord world.ChunkCoord, sections []MeshSection) {
	s.mu.Lock()
	s.uploaded[coord] += len(sections)
	s.mu.Unlock()
}

func (s *recordingSink) Remove(coord world.ChunkCoord) {
	s.mu.Lock()
	s.removed[coord] = true
	s.mu.Unlock()
}

func TestDispatcherDeliversBeforeShutdownReturns(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, 4, 64, quietLogger())
	for i := 0; i < 20; i++ {
		if !d.Submit(world.ChunkCoord{X: i}, make([]MeshSection, 3)) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	d.SubmitRemove(world.ChunkCoord{X: 99})
	d.Shutdown()

	if len(sink.uploaded) != 20 {
		t.Fatalf("uploads: got %d, want 20", len(sink.uploaded))
	}
	if sink.uploaded[world.ChunkCoord{X: 7}] != 3 {
		t.Fatalf("sections for chunk 7: got %d, want 3", sink.uploaded[world.ChunkCoord{X: 7}])
	}
	if !sink.removed[world.ChunkCoord{X: 99}] {
		t.Fatalf("remove not delivered")
	}
}

func TestDispatcherRejectsAfterShutdown(t *testing.T) {
	d := NewDispatcher(newRecordingSink(), 1, 1, quietLogger())
	d.Shutdown()
	if d.Submit(world.ChunkCoord{}, nil) {
		t.Fatalf("submit after shutdown should be rejected")
	}
	d.Shutdown()
}

// lastCallSink keeps only the most recent call per chunk, like the GL sink, and takes a
// while to upload.
type lastCallSink struct {
	mu    sync.Mutex
	delay time.Duration
	live  map[world.ChunkCoord]int
}

func newLastCallSink(delay time.Duration) *lastCallSink {
	return &lastCallSink{delay: delay, live: make(map[world.ChunkCoord]int)}
}

func (s *lastCallSink) Upload(coord world.ChunkCoord, sections []MeshSection) {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.live[coord] = len(sections)
	s.mu.Unlock()
}

func (s *lastCallSink) Remove(coord world.ChunkCoord) {
	s.mu.Lock()
	delete(s.live, coord)
	s.mu.Unlock()
}

func TestDispatcherRemoveAfterSlowUpload(t *testing.T) {
	sink := newLastCallSink(2 * time.Millisecond)
	d := NewDispatcher(sink, 4, 64, quietLogger())
	for i := 0; i < 16; i++ {
		coord := world.ChunkCoord{X: i, Y: -i}
		d.Submit(coord, make([]MeshSection, 1))
		d.SubmitRemove(coord)
	}
	d.Shutdown()

	if len(sink.live) != 0 {
		t.Fatalf("sink still holds %d meshes after every chunk was removed", len(sink.live))
	}
}

func TestDispatcherKeepsLatestUpload(t *testing.T) {
	sink := newLastCallSink(time.Millisecond)
	d := NewDispatcher(sink, 4, 64, quietLogger())
	coord := world.ChunkCoord{X: 3, Y: 5}
	for n := 1; n <= 8; n++ {
		d.Submit(coord, make([]MeshSection, n))
	}
	d.Shutdown()

	if sink.live[coord] != 8 {
		t.Fatalf("sections on screen: got %d, want the last upload's 8", sink.live[coord])
	}
}

func TestDispatcherShardIsStable(t *testing.T) {
	d := NewDispatcher(newRecordingSink(), 8, 1, quietLogger())
	defer d.Shutdown()
	for x := -20; x < 20; x++ {
		coord := world.ChunkCoord{X: x, Y: 7}
		first := d.shard(coord)
		if first < 0 || first >= 8 {
			t.Fatalf("shard %d out of range for %v", first, coord)
		}
		if again := d.shard(coord); again != first {
			t.Fatalf("shard for %v moved from %d to %d", coord, first, again)
		}
	}
}

type blockingSink struct {
	release chan struct{}

	mu      sync.Mutex
	removed map[world.ChunkCoord]bool
}

func (s *blockingSink) Upload(world.ChunkCoord, []MeshSection) { <-s.release }

func (s *blockingSink) Remove(coord world.ChunkCoord) {
	s.mu.Lock()
	s.removed[coord] = true
	s.mu.Unlock()
}

func TestDispatcherWaitsInsteadOfDropping(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), removed: make(map[world.ChunkCoord]bool)}
	d := NewDispatcher(sink, 1, 1, quietLogger())

	d.Submit(world.ChunkCoord{X: 1}, nil)
	d.Submit(world.ChunkCoord{X: 2}, nil)

	// one upload in flight and one queued, so this remove has no room yet
	done := make(chan bool)
	go func() {
		done <- d.SubmitRemove(world.ChunkCoord{X: 1})
	}()
	time.Sleep(10 * time.Millisecond)
	close(sink.release)
	if !<-done {
		t.Fatalf("remove rejected")
	}
	d.Shutdown()

	if !sink.removed[world.ChunkCoord{X: 1}] {
		t.Fatalf("remove was not delivered")
	}
	if d.GetQueueLength() != 0 {
		t.Fatalf("queue not drained: %d", d.GetQueueLength())
	}
}

func TestDispatcherAbortSkipsQueued(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, 1, 8, quietLogger())
	d.Abort()
	if d.SubmitRemove(world.ChunkCoord{}) {
		t.Fatalf("submit after abort should be rejected")
	}
	if len(sink.removed) != 0 {
		t.Fatalf("aborted dispatcher reached the sink")
	}
}
