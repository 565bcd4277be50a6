package showroom

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/pkg/math"
)

// FieldShowroom is emitted with the environment source id.
const FieldShowroom = "showroom"

// backdrop is the showroom environment. It has no bounding box, so it never
// moves the camera or widens the shadow frustum, and it casts no shadow.
type backdrop struct {
	car *model.Car
}

func (b backdrop) BoundingBox() (math.AABB, bool) {
	return math.AABB{}, false
}

func (b backdrop) Draw(dev gpu.Device, pass scene.Pass) error {
	if pass.Mode == scene.Shadow {
		return nil
	}
	return b.car.Draw(dev, pass)
}

func (b backdrop) Release() {
	b.car.Release()
}

// SetShowroom loads the environment model drawn behind the car and seen in
// its reflections. An empty source removes it. It blocks while loading.
func (r *Renderer) SetShowroom(ctx context.Context, src model.Source) error {
	if r.disposed {
		return ErrDisposed
	}
	if src.ID() == "" {
		r.removeBackdrop()
		return nil
	}

	data, err := r.loader.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("loading showroom: %w", err)
	}
	env, err := model.New(r.dev, data, model.DefaultSkin)
	if err != nil {
		return fmt.Errorf("building showroom: %w", err)
	}

	r.removeBackdrop()
	r.backdrop = &backdrop{car: env}
	r.scene.Insert(0, r.backdrop)
	r.log.Info("showroom loaded", zap.String("source", src.ID()), zap.Int("triangles", env.Triangles()))
	r.Changes.Emit(FieldShowroom, src.ID())
	return nil
}

// Showroom returns the environment source, or the zero Source.
func (r *Renderer) Showroom() model.Source {
	if r.backdrop == nil {
		return model.Source{}
	}
	return r.backdrop.car.Source()
}

func (r *Renderer) removeBackdrop() {
	if r.backdrop == nil {
		return
	}
	r.scene.Remove(r.backdrop)
	r.backdrop.Release()
	r.backdrop = nil
	r.Changes.Emit(FieldShowroom, "")
}
