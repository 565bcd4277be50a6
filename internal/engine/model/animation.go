package model

import (
	"strings"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/pkg/math"
)

const (
	doorSpeed    = 1.5 // full swings per second
	doorMaxAngle = 60  // degrees
	steerRatio   = 12  // steering wheel degrees per wheel degree
	maxSteerDeg  = 540
)

// role is what a mesh does when the car animates, derived from its node name.
type role int

const (
	rolePlain role = iota
	roleLeftDoor
	roleRightDoor
	roleSteeringWheel
	roleFrontWheel
	roleHeadlight
	roleBrakeLight
)

var rolePrefixes = []struct {
	prefix string
	role   role
}{
	{"DOOR_L", roleLeftDoor},
	{"DOOR_R", roleRightDoor},
	{"STEER", roleSteeringWheel},
	{"WHEEL_LF", roleFrontWheel},
	{"WHEEL_RF", roleFrontWheel},
	{"LIGHT_HEAD", roleHeadlight},
	{"LIGHT_BRAKE", roleBrakeLight},
}

func roleOf(name string) role {
	upper := strings.ToUpper(name)
	for _, rp := range rolePrefixes {
		if strings.HasPrefix(upper, rp.prefix) {
			return rp.role
		}
	}
	return rolePlain
}

// part is one uploaded mesh of a car.
type part struct {
	name      string
	material  string
	mesh      gpu.Mesh
	transform math.Mat4
	bounds    math.AABB
	role      role
}

func newPart(md gpu.MeshData, mesh gpu.Mesh) *part {
	return &part{
		name:      md.Name,
		material:  md.Material,
		mesh:      mesh,
		transform: md.Transform,
		bounds:    md.Bounds(),
		role:      roleOf(md.Name),
	}
}

func (c *Car) visible(p *part) bool {
	switch p.role {
	case roleHeadlight:
		return c.state.Lights
	case roleBrakeLight:
		return c.state.BrakeLights
	}
	return true
}

// animate returns the model-space motion of a part. Doors hinge at their
// front edge, wheels and the steering wheel turn around their centers.
func (c *Car) animate(p *part) math.Mat4 {
	switch p.role {
	case roleLeftDoor, roleRightDoor:
		progress := c.leftDoor
		sign := float32(1)
		if p.role == roleRightDoor {
			progress = c.rightDoor
			sign = -1
		}
		if progress == 0 {
			return math.Identity()
		}
		center := p.bounds.Center()
		hinge := math.Vec3{X: center.X, Y: center.Y, Z: p.bounds.Max.Z}
		return math.RotateY(sign * math.DegToRad(progress*doorMaxAngle)).About(hinge)
	case roleFrontWheel:
		if c.state.SteerDeg == 0 {
			return math.Identity()
		}
		return math.RotateY(math.DegToRad(c.state.SteerDeg / steerRatio)).About(p.bounds.Center())
	case roleSteeringWheel:
		if c.state.SteerDeg == 0 {
			return math.Identity()
		}
		return math.RotateZ(-math.DegToRad(c.state.SteerDeg)).About(p.bounds.Center())
	}
	return math.Identity()
}

// approach moves a door towards open or closed at doorSpeed.
func approach(progress float32, open bool, dt float32) (float32, bool) {
	target := float32(0)
	if open {
		target = 1
	}
	if progress == target {
		return progress, false
	}
	step := dt * doorSpeed
	if open {
		progress = min(progress+step, target)
	} else {
		progress = max(progress-step, target)
	}
	return progress, true
}
