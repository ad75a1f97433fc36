package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"tradecraft/internal/persistence/worlddb"
)

// MaxPitch keeps the view direction away from the vertical axis.
const MaxPitch = 89.0

// Camera handles the view and projection matrices. The world is Z-up; yaw and pitch are in
// degrees, yaw 0 looks along +X.
type Camera struct {
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(width, height int) *Camera {
	c := &Camera{
		FOV:       70.0,
		NearPlane: 0.1,
		FarPlane:  1000.0,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the aspect ratio. A zero height (minimized window) is ignored.
func (c *Camera) SetViewport(width, height int) {
	if height <= 0 {
		return
	}
	c.AspectRatio = float32(width) / float32(height)
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

// GetViewMatrix looks from the pose position along its facing.
func (c *Camera) GetViewMatrix(p worlddb.Pose) mgl32.Mat4 {
	eye := mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
	return mgl32.LookAtV(eye, eye.Add(Facing(p.Yaw, p.Pitch)), mgl32.Vec3{0, 0, 1})
}

// Facing returns the unit view direction for a yaw and pitch in degrees.
func Facing(yaw, pitch float64) mgl32.Vec3 {
	y := yaw * math.Pi / 180
	p := pitch * math.Pi / 180
	return mgl32.Vec3{
		float32(math.Cos(p) * math.Cos(y)),
		float32(math.Cos(p) * math.Sin(y)),
		float32(math.Sin(p)),
	}
}

// Heading returns the unit horizontal direction for a yaw in degrees.
func Heading(yaw float64) mgl32.Vec3 {
	return Facing(yaw, 0)
}

// Look turns the pose by the given yaw and pitch deltas, clamping the pitch.
func Look(p worlddb.Pose, dYaw, dPitch float64) worlddb.Pose {
	p.Yaw = math.Mod(p.Yaw+dYaw, 360)
	p.Pitch = max(-MaxPitch, min(MaxPitch, p.Pitch+dPitch))
	return p
}
