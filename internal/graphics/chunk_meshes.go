package graphics

import (
	"log/slog"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"tradecraft/internal/meshing"
	"tradecraft/internal/profiling"
	"tradecraft/internal/registry"
	"tradecraft/internal/world"
)

type sectionBuffers struct {
	id          world.BlockType
	vao         uint32
	vbo         uint32
	ebo         uint32
	indexCount  int32
	translucent bool
}

type chunkMesh struct {
	model    mgl32.Mat4
	lo, hi   mgl32.Vec3
	sections []sectionBuffers
}

type pendingMesh struct {
	sections []meshing.MeshSection
	remove   bool
}

// ChunkMeshes is the GL side of the mesh hand-off. Upload and Remove may be called from any
// goroutine; they only queue work. Flush and Draw must run on the thread owning the GL context.
type ChunkMeshes struct {
	dims   world.Dimensions
	blocks *registry.Registry
	log    *slog.Logger

	mu      sync.Mutex
	pending map[world.ChunkCoord]pendingMesh

	// GL thread only
	meshes map[world.ChunkCoord]*chunkMesh
	shader *Shader
}

// NewChunkMeshes creates the sink for chunks of the given dimensions.
func NewChunkMeshes(dims world.Dimensions, blocks *registry.Registry, log *slog.Logger) *ChunkMeshes {
	if log == nil {
		log = slog.Default()
	}
	return &ChunkMeshes{
		dims:    dims,
		blocks:  blocks,
		log:     log,
		pending: make(map[world.ChunkCoord]pendingMesh),
		meshes:  make(map[world.ChunkCoord]*chunkMesh),
	}
}

// Upload queues a chunk's sections. A later call for the same chunk replaces an unflushed one.
func (m *ChunkMeshes) Upload(coord world.ChunkCoord, sections []meshing.MeshSection) {
	m.mu.Lock()
	m.pending[coord] = pendingMesh{sections: sections}
	m.mu.Unlock()
}

// Remove queues the release of a chunk's buffers.
func (m *ChunkMeshes) Remove(coord world.ChunkCoord) {
	m.mu.Lock()
	m.pending[coord] = pendingMesh{remove: true}
	m.mu.Unlock()
}

// Pending returns the number of queued chunk updates.
func (m *ChunkMeshes) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Init compiles the chunk shader.
func (m *ChunkMeshes) Init() error {
	shader, err := NewShader(chunkVertexShader, chunkFragmentShader)
	if err != nil {
		return err
	}
	m.shader = shader
	return nil
}

// Flush applies every queued update and returns how many chunks changed.
func (m *ChunkMeshes) Flush() int {
	defer profiling.Track("graphics.ChunkMeshes.Flush")()
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[world.ChunkCoord]pendingMesh, len(pending))
	m.mu.Unlock()

	for coord, p := range pending {
		if old, ok := m.meshes[coord]; ok {
			old.release()
			delete(m.meshes, coord)
		}
		if p.remove {
			continue
		}
		m.meshes[coord] = m.build(coord, p.sections)
	}
	return len(pending)
}

func (m *ChunkMeshes) build(coord world.ChunkCoord, sections []meshing.MeshSection) *chunkMesh {
	ox, oy := coord.Origin(m.dims.Width)
	bottom := float32(-m.dims.Height / 2)
	cm := &chunkMesh{
		// mesh z is the grid z; world z is shifted down by half the height
		model: mgl32.Translate3D(float32(ox), float32(oy), bottom),
		lo:    mgl32.Vec3{float32(ox) - 0.5, float32(oy) - 0.5, bottom - 0.5},
		hi:    mgl32.Vec3{float32(ox+m.dims.Width) - 0.5, float32(oy+m.dims.Width) - 0.5, bottom + float32(m.dims.Height) - 0.5},
	}
	for i := range sections {
		s := &sections[i]
		if s.Empty() {
			continue
		}
		id := world.BlockType(i)
		translucent := false
		if def, ok := m.blocks.Blocks[id]; ok {
			translucent = def.SeeThrough || !def.IsSolid
		}
		cm.sections = append(cm.sections, uploadSection(id, s, translucent))
	}
	return cm
}

func uploadSection(id world.BlockType, s *meshing.MeshSection, translucent bool) sectionBuffers {
	verts := s.Interleave()
	b := sectionBuffers{id: id, indexCount: int32(len(s.Triangles)), translucent: translucent}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.GenBuffers(1, &b.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(s.Triangles)*4, gl.Ptr(s.Triangles), gl.STATIC_DRAW)

	stride := int32(meshing.VertexStride * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(6*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(3, 1, gl.FLOAT, false, stride, gl.PtrOffset(8*4))
	gl.EnableVertexAttribArray(3)

	gl.BindVertexArray(0)
	return b
}

func (cm *chunkMesh) release() {
	for i := range cm.sections {
		s := &cm.sections[i]
		gl.DeleteVertexArrays(1, &s.vao)
		gl.DeleteBuffers(1, &s.vbo)
		gl.DeleteBuffers(1, &s.ebo)
	}
	cm.sections = nil
}

// Draw renders every uploaded chunk inside the view frustum and returns how many were drawn.
// Opaque sections go first, translucent ones after with blending.
func (m *ChunkMeshes) Draw(proj, view mgl32.Mat4) int {
	defer profiling.Track("graphics.ChunkMeshes.Draw")()
	frustum := NewFrustum(proj.Mul4(view))

	m.shader.Use()
	m.shader.SetMatrix4("proj", &proj[0])
	m.shader.SetMatrix4("view", &view[0])
	light := mgl32.Vec3{0.3, 0.5, 1.0}.Normalize()
	m.shader.SetVector3("lightDir", light.X(), light.Y(), light.Z())

	visible := make([]*chunkMesh, 0, len(m.meshes))
	for _, cm := range m.meshes {
		if frustum.ContainsBox(cm.lo, cm.hi) {
			visible = append(visible, cm)
		}
	}

	m.shader.SetFloat("alpha", 1)
	m.drawPass(visible, false)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	m.shader.SetFloat("alpha", 0.7)
	m.drawPass(visible, true)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)

	return len(visible)
}

func (m *ChunkMeshes) drawPass(visible []*chunkMesh, translucent bool) {
	for _, cm := range visible {
		m.shader.SetMatrix4("model", &cm.model[0])
		for i := range cm.sections {
			s := &cm.sections[i]
			if s.translucent != translucent {
				continue
			}
			r, g, b := float32(1), float32(1), float32(1)
			if def, ok := m.blocks.Blocks[s.id]; ok {
				r, g, b = def.RGB()
			}
			m.shader.SetVector3("tint", r, g, b)
			gl.BindVertexArray(s.vao)
			gl.DrawElements(gl.TRIANGLES, s.indexCount, gl.UNSIGNED_INT, nil)
		}
	}
	gl.BindVertexArray(0)
}

// Dispose releases every GL object. Queued updates are dropped.
func (m *ChunkMeshes) Dispose() {
	for coord, cm := range m.meshes {
		cm.release()
		delete(m.meshes, coord)
	}
	if m.shader != nil {
		m.shader.Delete()
	}
	m.mu.Lock()
	clear(m.pending)
	m.mu.Unlock()
}

var _ meshing.Sink = (*ChunkMeshes)(nil)
