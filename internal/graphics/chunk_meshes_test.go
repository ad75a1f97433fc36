package graphics

import (
	"testing"

	"tradecraft/internal/meshing"
	"tradecraft/internal/registry"
	"tradecraft/internal/world"
)

func TestChunkMeshesQueueCoalesces(t *testing.T) {
	m := NewChunkMeshes(world.Dimensions{Width: 16, Height: 32}, registry.Default(), nil)
	a := world.ChunkCoord{X: 0, Y: 0}
	b := world.ChunkCoord{X: 1, Y: 0}

	m.Upload(a, make([]meshing.MeshSection, 8))
	m.Upload(a, make([]meshing.MeshSection, 8))
	m.Upload(b, nil)
	if got := m.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	m.Remove(a)
	m.mu.Lock()
	p := m.pending[a]
	m.mu.Unlock()
	if !p.remove || p.sections != nil {
		t.Fatalf("pending for %v = %+v, want removal", a, p)
	}
}
