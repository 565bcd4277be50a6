package loader

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/pkg/math"
)

var errNoGeometry = errors.New("no triangle geometry")

// decodeDocument turns every glTF scene into one LOD. Cameras are collected
// from all scenes; the first node with a given name wins.
func decodeDocument(doc *gltf.Document) (*model.Data, error) {
	data := &model.Data{}
	seen := make(map[string]bool)

	scenes := doc.Scenes
	if len(scenes) == 0 {
		scenes = []*gltf.Scene{{Nodes: rootNodes(doc)}}
	}

	for i, sc := range scenes {
		w := walker{doc: doc}
		for _, n := range sc.Nodes {
			if err := w.visit(n, mgl32.Ident4()); err != nil {
				return nil, fmt.Errorf("scene %d: %w", i, err)
			}
		}
		if len(w.meshes) > 0 {
			in, out := lodRange(sc.Extras)
			data.LODs = append(data.LODs, model.LOD{Meshes: w.meshes, In: in, Out: out})
		}
		for _, c := range w.cameras {
			if !seen[c.Name] {
				seen[c.Name] = true
				data.Cameras = append(data.Cameras, c)
			}
		}
	}

	if len(data.LODs) == 0 {
		return nil, errNoGeometry
	}
	return data, nil
}

// rootNodes returns nodes that are nobody's child.
func rootNodes(doc *gltf.Document) []uint32 {
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(child) {
				child[c] = true
			}
		}
	}
	var roots []uint32
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// lodRange reads the optional {"in": .., "out": ..} scene extras.
func lodRange(extras any) (in, out float32) {
	m, ok := extras.(map[string]any)
	if !ok {
		return 0, 0
	}
	if v, ok := m["in"].(float64); ok {
		in = float32(v)
	}
	if v, ok := m["out"].(float64); ok {
		out = float32(v)
	}
	return in, out
}

type walker struct {
	doc     *gltf.Document
	meshes  []gpu.MeshData
	cameras []model.NamedCamera
	depth   int
}

const maxDepth = 64

func (w *walker) visit(index uint32, parent mgl32.Mat4) error {
	if int(index) >= len(w.doc.Nodes) {
		return fmt.Errorf("node %d out of range", index)
	}
	if w.depth > maxDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", index, maxDepth)
	}
	node := w.doc.Nodes[index]
	world := parent.Mul4(localMatrix(node))

	if node.Mesh != nil {
		if err := w.addMesh(node, world); err != nil {
			return fmt.Errorf("node %q: %w", node.Name, err)
		}
	}
	if node.Camera != nil {
		if c, ok := w.camera(node, world); ok {
			w.cameras = append(w.cameras, c)
		}
	}

	w.depth++
	defer func() { w.depth-- }()
	for _, c := range node.Children {
		if err := w.visit(c, world); err != nil {
			return err
		}
	}
	return nil
}

// localMatrix returns the node matrix, or T*R*S when the node uses TRS.
func localMatrix(node *gltf.Node) mgl32.Mat4 {
	if m := mgl32.Mat4(node.MatrixOrDefault()); m != mgl32.Ident4() {
		return m
	}
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	rot := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func (w *walker) addMesh(node *gltf.Node, world mgl32.Mat4) error {
	if int(*node.Mesh) >= len(w.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", *node.Mesh)
	}
	mesh := w.doc.Meshes[*node.Mesh]
	for i, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		md, err := w.primitive(prim)
		if err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
		md.Name = node.Name
		if len(mesh.Primitives) > 1 {
			md.Name = fmt.Sprintf("%s#%d", node.Name, i)
		}
		md.Transform = math.Mat4(world)
		w.meshes = append(w.meshes, md)
	}
	return nil
}

func (w *walker) accessor(index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(w.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return w.doc.Accessors[index], nil
}

func (w *walker) primitive(prim *gltf.Primitive) (gpu.MeshData, error) {
	var md gpu.MeshData

	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return md, errors.New("missing POSITION")
	}
	acr, err := w.accessor(posIndex)
	if err != nil {
		return md, err
	}
	positions, err := modeler.ReadPosition(w.doc, acr, nil)
	if err != nil {
		return md, fmt.Errorf("reading positions: %w", err)
	}
	md.Vertices = make([]gpu.Vertex, len(positions))
	for i, p := range positions {
		md.Vertices[i].Position = p
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		acr, err := w.accessor(idx)
		if err != nil {
			return md, err
		}
		normals, err := modeler.ReadNormal(w.doc, acr, nil)
		if err != nil {
			return md, fmt.Errorf("reading normals: %w", err)
		}
		for i := range min(len(normals), len(md.Vertices)) {
			md.Vertices[i].Normal = normals[i]
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := w.accessor(idx)
		if err != nil {
			return md, err
		}
		uvs, err := modeler.ReadTextureCoord(w.doc, acr, nil)
		if err != nil {
			return md, fmt.Errorf("reading texture coordinates: %w", err)
		}
		for i := range min(len(uvs), len(md.Vertices)) {
			md.Vertices[i].TexCoord = uvs[i]
		}
	}

	if prim.Indices != nil {
		acr, err := w.accessor(*prim.Indices)
		if err != nil {
			return md, err
		}
		md.Indices, err = modeler.ReadIndices(w.doc, acr, nil)
		if err != nil {
			return md, fmt.Errorf("reading indices: %w", err)
		}
		for _, i := range md.Indices {
			if int(i) >= len(md.Vertices) {
				return md, fmt.Errorf("index %d out of %d vertices", i, len(md.Vertices))
			}
		}
	} else {
		md.Indices = make([]uint32, len(md.Vertices))
		for i := range md.Indices {
			md.Indices[i] = uint32(i)
		}
	}

	if prim.Material != nil && int(*prim.Material) < len(w.doc.Materials) {
		md.Material = w.doc.Materials[*prim.Material].Name
	}
	return md, nil
}

// camera converts a perspective camera node. glTF cameras look down -Z with +Y up.
func (w *walker) camera(node *gltf.Node, world mgl32.Mat4) (model.NamedCamera, bool) {
	if int(*node.Camera) >= len(w.doc.Cameras) {
		return model.NamedCamera{}, false
	}
	cam := w.doc.Cameras[*node.Camera]
	if cam.Perspective == nil {
		return model.NamedCamera{}, false
	}
	p := cam.Perspective

	eye := world.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	look := world.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3().Normalize()
	up := world.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3().Normalize()

	fixed := camera.Fixed{
		Eye:  math.Vec3{X: eye[0], Y: eye[1], Z: eye[2]},
		Look: math.Vec3{X: look[0], Y: look[1], Z: look[2]},
		Up:   math.Vec3{X: up[0], Y: up[1], Z: up[2]},
		FovY: float32(p.Yfov),
		Near: float32(p.Znear),
	}
	if p.Zfar != nil {
		fixed.Far = float32(*p.Zfar)
	}

	name := node.Name
	if name == "" {
		name = cam.Name
	}
	return model.NamedCamera{Name: name, Camera: fixed}, true
}
