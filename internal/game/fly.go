package game

import (
	"math"

	"tradecraft/internal/persistence/worlddb"
)

const (
	FlySpeed    = 10.0 // blocks per second
	SprintSpeed = 30.0
)

// Thrust is the requested movement along the observer's heading, strafe and vertical axes,
// each in [-1, 1].
type Thrust struct {
	Forward, Right, Up float64
	Sprint             bool
}

// Fly moves a pose for dt seconds. Horizontal movement follows the yaw only, so looking down
// does not slow the observer.
func Fly(p worlddb.Pose, t Thrust, dt float64) worlddb.Pose {
	speed := FlySpeed
	if t.Sprint {
		speed = SprintSpeed
	}
	yaw := p.Yaw * math.Pi / 180
	fx, fy := math.Cos(yaw), math.Sin(yaw)
	// right is the heading turned clockwise seen from above
	rx, ry := fy, -fx

	dx := t.Forward*fx + t.Right*rx
	dy := t.Forward*fy + t.Right*ry
	if l := math.Hypot(dx, dy); l > 1 {
		dx, dy = dx/l, dy/l
	}
	p.X += dx * speed * dt
	p.Y += dy * speed * dt
	p.Z += t.Up * speed * dt
	return p
}
