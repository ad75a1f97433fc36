package meshing

import (
	"context"
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"tradecraft/internal/world"
)

// Sink receives finished meshes. It is the renderer side of the hand-off.
type Sink interface {
	Upload(coord world.ChunkCoord, sections []MeshSection)
	Remove(coord world.ChunkCoord)
}

// MeshJob represents a mesh hand-off request
type MeshJob struct {
	Coord    world.ChunkCoord
	Sections []MeshSection
	// Remove drops the chunk's mesh instead of uploading one.
	Remove bool
}

// Dispatcher manages goroutines that pass finished meshes to a Sink. Every chunk coordinate
// maps to one worker, so the sink sees a chunk's jobs in submission order.
type Dispatcher struct {
	queues []chan MeshJob
	sink   Sink
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// held for reading while sending so Shutdown cannot close a queue under a sender
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given number of workers. queueSize bounds
// each worker's queue.
func NewDispatcher(sink Sink, workers int, queueSize int, log *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		queues: make([]chan MeshJob, max(workers, 1)),
		sink:   sink,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}

	for i := range d.queues {
		d.queues[i] = make(chan MeshJob, max(queueSize, 0))
		d.wg.Add(1)
		go d.worker(d.queues[i])
	}
	return d
}

// Submit queues an upload, waiting while the chunk's worker queue is full. It reports false
// once the dispatcher is shut down.
func (d *Dispatcher) Submit(coord world.ChunkCoord, sections []MeshSection) bool {
	return d.submit(MeshJob{Coord: coord, Sections: sections})
}

// SubmitRemove queues removal of a chunk's mesh. Like Submit it waits rather than drop.
func (d *Dispatcher) SubmitRemove(coord world.ChunkCoord) bool {
	return d.submit(MeshJob{Coord: coord, Remove: true})
}

func (d *Dispatcher) submit(job MeshJob) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	q := d.queues[d.shard(job.Coord)]
	select {
	case q <- job:
	default:
		d.log.Debug("mesh queue full, waiting", "chunk", job.Coord, "remove", job.Remove)
		q <- job
	}
	return true
}

// shard picks the worker that owns coord.
func (d *Dispatcher) shard(coord world.ChunkCoord) int {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(coord.X))
	binary.LittleEndian.PutUint32(buf[4:], uint32(coord.Y))
	return int(xxhash.Sum64(buf[:]) % uint64(len(d.queues)))
}

func (d *Dispatcher) worker(jobs <-chan MeshJob) {
	defer d.wg.Done()
	for job := range jobs {
		if d.ctx.Err() != nil {
			continue
		}
		if job.Remove {
			d.sink.Remove(job.Coord)
		} else {
			d.sink.Upload(job.Coord, job.Sections)
		}
	}
}

// Shutdown stops accepting jobs and waits for queued ones to reach the sink.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
	d.cancel()
}

// Abort drops queued jobs and stops the workers.
func (d *Dispatcher) Abort() {
	d.cancel()
	d.Shutdown()
}

// GetQueueLength returns the current number of jobs waiting across all workers
func (d *Dispatcher) GetQueueLength() int {
	n := 0
	for _, q := range d.queues {
		n += len(q)
	}
	return n
}
