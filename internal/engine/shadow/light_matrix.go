package shadow

import (
	"github.com/Faultbox/showroom/pkg/math"
)

// LightMatrix computes the view-projection of a directional light covering
// a sphere of the given radius around center. lightDir points towards the light.
func LightMatrix(lightDir, center math.Vec3, radius float32) (viewProj math.Mat4, lightPos math.Vec3) {
	// Position light far enough to encompass entire scene
	lightDistance := radius * 2
	lightPos = center.Add(lightDir.Scale(lightDistance))

	// Avoid an up vector parallel to the light
	up := math.UnitY
	if math.Abs(lightDir.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}
	view := math.LookAt(lightPos, center, up)

	padding := radius * 0.1
	halfSize := radius + padding
	far := lightDistance + radius + padding
	proj := math.Ortho(-halfSize, halfSize, -halfSize, halfSize, 0.1, far)

	return proj.Mul(view), lightPos
}
