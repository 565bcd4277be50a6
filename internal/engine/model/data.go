// Package model holds decoded car models and the renderable car built from them.
package model

import (
	"image"
	"path/filepath"
	"sync"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/pkg/math"
)

// Source identifies a model file.
type Source struct {
	Path string
}

// ID returns the identity the model cache keys on.
func (s Source) ID() string {
	if s.Path == "" {
		return ""
	}
	return filepath.Clean(s.Path)
}

func (s Source) String() string {
	return s.ID()
}

// LOD is one level of detail.
type LOD struct {
	Meshes []gpu.MeshData
	// In and Out are the camera distances the level is meant for; zero Out is unbounded.
	In, Out float32
}

// NamedCamera is a camera node found in the model file.
type NamedCamera struct {
	Name   string
	Camera camera.Fixed
}

// Skin is a set of textures keyed by material name.
type Skin struct {
	ID       string
	Dir      string
	Textures map[string]*image.RGBA
}

// Data is a fully decoded model that has not touched the GPU yet.
type Data struct {
	Source  Source
	Name    string
	LODs    []LOD
	Cameras []NamedCamera
	Skins   []Skin

	prepare sync.Once
	bounds  []math.AABB
}

// Prepare fills in missing normals and computes per-LOD bounds. It is safe
// to call from several goroutines; only the first call does the work.
func (d *Data) Prepare() {
	d.prepare.Do(func() {
		d.bounds = make([]math.AABB, len(d.LODs))
		for i := range d.LODs {
			box := math.EmptyAABB()
			for j := range d.LODs[i].Meshes {
				m := &d.LODs[i].Meshes[j]
				if !hasNormals(m.Vertices) {
					computeNormals(m.Vertices, m.Indices)
				}
				box = box.Union(m.Bounds())
			}
			d.bounds[i] = box
		}
	})
}

// Bounds returns the model-space box of one LOD.
func (d *Data) Bounds(lod int) math.AABB {
	d.Prepare()
	if lod < 0 || lod >= len(d.bounds) {
		return math.EmptyAABB()
	}
	return d.bounds[lod]
}

// Triangles returns the triangle count of one LOD.
func (d *Data) Triangles(lod int) int {
	if lod < 0 || lod >= len(d.LODs) {
		return 0
	}
	n := 0
	for _, m := range d.LODs[lod].Meshes {
		n += len(m.Indices) / 3
	}
	return n
}

func hasNormals(vertices []gpu.Vertex) bool {
	for _, v := range vertices {
		if v.Normal != ([3]float32{}) {
			return true
		}
	}
	return false
}

// computeNormals accumulates area-weighted face normals on each vertex.
func computeNormals(vertices []gpu.Vertex, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := indices[i], indices[i+1], indices[i+2]
		if int(ia) >= len(vertices) || int(ib) >= len(vertices) || int(ic) >= len(vertices) {
			continue
		}
		a := math.V3(vertices[ia].Position)
		b := math.V3(vertices[ib].Position)
		c := math.V3(vertices[ic].Position)
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range [3]uint32{ia, ib, ic} {
			vertices[idx].Normal = math.V3(vertices[idx].Normal).Add(n).Array()
		}
	}
	for i := range vertices {
		vertices[i].Normal = math.V3(vertices[i].Normal).Normalize().Array()
	}
}
