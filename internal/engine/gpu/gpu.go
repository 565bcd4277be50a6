// Package gpu defines the GPU resources the renderer core manipulates.
//
// The showroom, model, shadow and reflection packages only talk to these
// interfaces; glgpu implements them on OpenGL and gputest in memory.
// Every method must be called from the goroutine that owns the GL context.
package gpu

import (
	"image"

	"github.com/Faultbox/showroom/pkg/math"
)

// Resource is anything holding GPU memory.
type Resource interface {
	// Release frees the GPU objects. Calling it twice is a no-op.
	Release()
}

// Vertex is the interleaved vertex layout uploaded for car and showroom meshes.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// MeshData is CPU-side geometry ready for upload.
type MeshData struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	// Transform places the mesh in model space.
	Transform math.Mat4
	// Material selects which skin texture slot the mesh samples; empty means untextured.
	Material string
}

// Bounds returns the model-space bounding box of the transformed vertices.
func (d MeshData) Bounds() math.AABB {
	box := math.EmptyAABB()
	for _, v := range d.Vertices {
		box = box.ExtendPoint(d.Transform.TransformCoordinate(math.V3(v.Position)))
	}
	return box
}

// Mesh is uploaded geometry.
type Mesh interface {
	Resource
	IndexCount() int32
}

// Texture is an uploaded 2D image.
type Texture interface {
	Resource
	Size() (width, height int32)
}

// ShadowTarget is a depth-only render target for a directional light.
type ShadowTarget interface {
	Resource
	Resolution() int32
	// Begin binds the target and clears depth; End restores the previous target.
	Begin()
	End()
	// Clear wipes the depth map so nothing samples as shadowed.
	Clear()
}

// CubemapTarget is a six-face color render target for environment reflections.
type CubemapTarget interface {
	Resource
	Resolution() int32
	// BeginFace binds one face (0..5) for drawing; End restores the previous target.
	BeginFace(face int)
	End()
}

// DrawParams describes one mesh draw.
type DrawParams struct {
	Mesh     Mesh
	Model    math.Mat4
	ViewProj math.Mat4
	Texture  Texture
	// DepthOnly draws into the bound shadow target with the light matrix as ViewProj.
	DepthOnly bool
}

// Effect holds the per-frame shading uniforms.
type Effect interface {
	SetEyePosition(eye math.Vec3)
	SetLight(direction math.Vec3)
	SetShadowMap(target ShadowTarget, lightViewProj math.Mat4)
	SetReflectionMap(target CubemapTarget)
}

// Device creates resources and issues draws.
type Device interface {
	NewMesh(data MeshData) (Mesh, error)
	NewTexture(img *image.RGBA) (Texture, error)
	NewShadowTarget(resolution int32) (ShadowTarget, error)
	NewCubemapTarget(resolution int32) (CubemapTarget, error)
	Effect() Effect
	Draw(p DrawParams) error
}

// ReleaseAll releases every non-nil resource.
func ReleaseAll[T Resource](resources ...T) {
	for _, r := range resources {
		if any(r) != nil {
			r.Release()
		}
	}
}
