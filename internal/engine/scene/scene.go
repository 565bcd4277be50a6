// Package scene holds the ordered list of renderable nodes and their
// lazily computed bounding box.
package scene

import (
	"errors"
	"slices"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/pkg/math"
)

// Mode tells a node which pass it is drawn in.
type Mode int

const (
	// Main is the lit pass seen by the viewer.
	Main Mode = iota
	// Shadow renders depth only from the light.
	Shadow
	// Reflection renders one cubemap face for environment mapping.
	Reflection
)

// Pass carries the per-pass draw state.
type Pass struct {
	Mode     Mode
	ViewProj math.Mat4
	Eye      math.Vec3
}

// Node is a renderable scene member.
type Node interface {
	// BoundingBox returns the world-space box; false when the node has no geometry.
	BoundingBox() (math.AABB, bool)
	Draw(dev gpu.Device, pass Pass) error
	Release()
}

// Observable nodes report their own geometry changes.
type Observable interface {
	OnChanged(fn func()) (cancel func())
}

// Graph is the ordered node list. It is not safe for concurrent use.
type Graph struct {
	// Updated fires on every membership or geometry change.
	Updated notify.Signal

	nodes   []Node
	cancels map[Node]func()
	box     math.AABB
	hasBox  bool
	valid   bool
	version uint64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{cancels: make(map[Node]func())}
}

// Nodes returns the nodes in draw order. The slice must not be modified.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Contains reports whether n is a member.
func (g *Graph) Contains(n Node) bool {
	return slices.Contains(g.nodes, n)
}

// Add appends nodes. Nodes that are already members are skipped.
func (g *Graph) Add(nodes ...Node) {
	added := false
	for _, n := range nodes {
		if g.Contains(n) {
			continue
		}
		g.watch(n)
		g.nodes = append(g.nodes, n)
		added = true
	}
	if added {
		g.Invalidate()
	}
}

// Insert places n at index i, clamped to the list bounds. It does nothing
// if n is already a member.
func (g *Graph) Insert(i int, n Node) {
	if g.Contains(n) {
		return
	}
	i = max(0, min(i, len(g.nodes)))
	g.watch(n)
	g.nodes = slices.Insert(g.nodes, i, n)
	g.Invalidate()
}

// Remove detaches n without releasing it. It reports whether n was a member.
func (g *Graph) Remove(n Node) bool {
	i := slices.Index(g.nodes, n)
	if i < 0 {
		return false
	}
	g.unwatch(n)
	g.nodes = slices.Delete(g.nodes, i, i+1)
	g.Invalidate()
	return true
}

// Clear detaches every node without releasing them and returns them in order.
func (g *Graph) Clear() []Node {
	removed := g.nodes
	for _, n := range removed {
		g.unwatch(n)
	}
	g.nodes = nil
	g.Invalidate()
	return removed
}

// Release detaches and releases every node.
func (g *Graph) Release() {
	for _, n := range g.Clear() {
		n.Release()
	}
}

func (g *Graph) watch(n Node) {
	if o, ok := n.(Observable); ok {
		g.cancels[n] = o.OnChanged(g.Invalidate)
	}
}

func (g *Graph) unwatch(n Node) {
	if cancel, ok := g.cancels[n]; ok {
		cancel()
		delete(g.cancels, n)
	}
}

// Invalidate drops the cached box and fires Updated.
func (g *Graph) Invalidate() {
	g.valid = false
	g.version++
	g.Updated.Fire()
}

// Version increases on every invalidation.
func (g *Graph) Version() uint64 {
	return g.version
}

// BoundingBox returns the union of the node boxes, recomputing it if stale.
func (g *Graph) BoundingBox() (math.AABB, bool) {
	if !g.valid {
		g.UpdateBoundingBox()
	}
	return g.box, g.hasBox
}

// UpdateBoundingBox recomputes the cached box now.
func (g *Graph) UpdateBoundingBox() {
	box := math.EmptyAABB()
	for _, n := range g.nodes {
		if b, ok := n.BoundingBox(); ok {
			box = box.Union(b)
		}
	}
	g.box = box
	g.hasBox = !box.IsEmpty()
	g.valid = true
}

// Draw draws every node in order, continuing past failures and returning
// them joined.
func (g *Graph) Draw(dev gpu.Device, pass Pass) error {
	var errs []error
	for _, n := range g.nodes {
		if err := n.Draw(dev, pass); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
