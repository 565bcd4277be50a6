package showroom

// ticker is implemented by nodes with their own animation.
type ticker interface {
	OnTick(dt float32) bool
}

// Tick runs queued tasks, advances animations and the camera by dt seconds,
// and reports whether the next frame differs from the last one.
func (r *Renderer) Tick(dt float32) bool {
	if r.disposed {
		return false
	}
	r.RunPending()

	animDt := dt * r.opts.AnimationMultiplier
	for _, n := range r.scene.Nodes() {
		if t, ok := n.(ticker); ok && t.OnTick(animDt) {
			r.markSceneDirty()
		}
	}

	if r.cameras.Tick(dt) {
		r.dirty = true
	}

	dirty := r.dirty || r.sceneDirty || r.bboxPending
	r.dirty = false
	return dirty
}

// MarkDirty forces the next Tick to request a redraw.
func (r *Renderer) MarkDirty() {
	r.dirty = true
}
