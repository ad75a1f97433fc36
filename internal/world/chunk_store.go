package world

import (
	"slices"
	"sync"
)

// ChunkStore is the table of live chunks. There is at most one live chunk per coordinate.
type ChunkStore struct {
	chunks   map[ChunkCoord]*Chunk
	mu       sync.RWMutex
	modCount uint64 // Increases on any chunk add/remove
}

// NewChunkStore creates an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// GetChunk returns the live chunk at coord, or nil.
func (cs *ChunkStore) GetChunk(coord ChunkCoord) *Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[coord]
}

// HasChunk checks if a chunk is live.
func (cs *ChunkStore) HasChunk(coord ChunkCoord) bool {
	cs.mu.RLock()
	_, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	return exists
}

// AddChunk installs a chunk. It reports false and leaves the store unchanged when the
// coordinate is already live.
func (cs *ChunkStore) AddChunk(chunk *Chunk) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[chunk.Coord]; ok {
		return false
	}
	cs.chunks[chunk.Coord] = chunk
	cs.modCount++
	return true
}

// RemoveChunk drops a chunk from the table and returns it.
func (cs *ChunkStore) RemoveChunk(coord ChunkCoord) *Chunk {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	chunk, ok := cs.chunks[coord]
	if !ok {
		return nil
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return chunk
}

// Len returns the number of live chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// Coords returns the live coordinates in a stable order (by X, then Y).
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	coords := make([]ChunkCoord, 0, len(cs.chunks))
	for coord := range cs.chunks {
		coords = append(coords, coord)
	}
	cs.mu.RUnlock()
	slices.SortFunc(coords, func(a, b ChunkCoord) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Y - b.Y
	})
	return coords
}

// CoordsOutside returns live coordinates farther than radius from center on either axis.
func (cs *ChunkStore) CoordsOutside(center ChunkCoord, radius int) []ChunkCoord {
	var out []ChunkCoord
	for _, coord := range cs.Coords() {
		if abs(coord.X-center.X) > radius || abs(coord.Y-center.Y) > radius {
			out = append(out, coord)
		}
	}
	return out
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}
