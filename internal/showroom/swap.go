package showroom

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/internal/notify"
)

// SetModel makes src the active car, decoding it on the calling goroutine
// unless it is active or cached already. An empty source clears the scene.
// On failure the previous car stays active. It supersedes pending async loads.
func (r *Renderer) SetModel(src model.Source, skinID string) error {
	if r.disposed {
		return ErrDisposed
	}
	r.supersede()

	if r.activateExisting(src, skinID) {
		return nil
	}
	data, err := r.loader.Load(context.Background(), src)
	if err != nil {
		return err
	}
	return r.install(data, skinID)
}

// SetModelAsync is SetModel with decoding on a background goroutine. The
// returned channel receives exactly one value once the request settles:
// nil, the load or GPU error, or context.Canceled when a newer request or
// ctx cancellation superseded it. Results are applied by RunPending.
func (r *Renderer) SetModelAsync(ctx context.Context, src model.Source, skinID string) <-chan error {
	done := make(chan error, 1)
	if r.disposed {
		done <- ErrDisposed
		return done
	}
	seq := r.supersede()

	if r.activateExisting(src, skinID) {
		done <- nil
		return done
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.loadAsync(ctx, cancel, seq, src, skinID, done)
	return done
}

// Reload decodes the active car's source again and swaps the fresh copy in,
// keeping skin and animation state.
func (r *Renderer) Reload() error {
	if r.car == nil {
		return nil
	}
	src, skin := r.car.Source(), r.car.CurrentSkin()
	r.supersede()
	r.Forget(src)
	data, err := r.loader.Load(context.Background(), src)
	if err != nil {
		return err
	}
	return r.install(data, skin)
}

// ReloadAsync is Reload with decoding on a background goroutine.
func (r *Renderer) ReloadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if r.car == nil || r.disposed {
		done <- nil
		return done
	}
	src, skin := r.car.Source(), r.car.CurrentSkin()
	seq := r.supersede()
	r.Forget(src)

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.loadAsync(ctx, cancel, seq, src, skin, done)
	return done
}

func (r *Renderer) loadAsync(ctx context.Context, cancel context.CancelFunc, seq uint64, src model.Source, skinID string, done chan<- error) {
	data, err := r.loader.Load(ctx, src)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		data.Prepare()
		err = ctx.Err()
	}

	r.Post(func() {
		defer cancel()
		switch {
		case r.disposed:
			done <- ErrDisposed
		case seq != r.seq || ctx.Err() != nil:
			r.log.Debug("discarding superseded load", zap.String("source", src.ID()))
			done <- context.Canceled
		case err != nil:
			if !errors.Is(err, context.Canceled) {
				r.log.Warn("model load failed", zap.String("source", src.ID()), zap.Error(err))
				r.Changes.Emit(FieldLoadError, err.Error())
			}
			done <- err
		default:
			err := r.install(data, skinID)
			if err != nil {
				r.Changes.Emit(FieldLoadError, err.Error())
			}
			done <- err
		}
	})
}

// supersede cancels the pending async load and returns the new request number.
func (r *Renderer) supersede() uint64 {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.seq++
	return r.seq
}

// activateExisting handles requests that need no decoding: clearing, the
// active car, and cached cars.
func (r *Renderer) activateExisting(src model.Source, skinID string) bool {
	id := src.ID()
	if id == "" {
		r.clearModel()
		return true
	}
	if r.car != nil && r.car.Source().ID() == id {
		if skinID != model.DefaultSkin {
			r.selectSkin(r.car, skinID)
		}
		return true
	}
	entry, ok := r.takeCached(id)
	if !ok {
		return false
	}
	state := r.currentState()
	r.evict(id)
	r.activate(entry.car, entry.nodes, state, skinID)
	r.log.Debug("car restored from cache", zap.String("source", id))
	return true
}

// install builds GPU objects for freshly decoded data and activates them.
// A construction failure leaves the previous car active.
func (r *Renderer) install(data *model.Data, skinID string) error {
	car, err := model.New(r.dev, data, skinID)
	if err != nil {
		r.log.Error("building car failed", zap.String("source", data.Source.ID()), zap.Error(err))
		return err
	}

	nodes := []scene.Node{car}
	if r.hooks.ExtendCar != nil {
		nodes = append(nodes, r.hooks.ExtendCar(car)...)
	}

	state := r.currentState()
	r.evict(data.Source.ID())
	r.activate(car, nodes, state, skinID)
	r.log.Info("car loaded",
		zap.String("source", data.Source.ID()),
		zap.Int("lods", car.LodCount()),
		zap.Int("triangles", car.Triangles()))
	return nil
}

// currentState is the state the next car inherits.
func (r *Renderer) currentState() model.State {
	if r.car == nil {
		return model.State{}
	}
	return r.car.State()
}

func (r *Renderer) activate(car *model.Car, nodes []scene.Node, state model.State, skinID string) {
	car.SetState(state)
	r.selectSkin(car, skinID)
	if r.lod >= 0 {
		car.SetLod(r.lod)
		r.lod = -1
	}

	r.car, r.carNodes = car, nodes
	r.carCancel = car.Changes.Subscribe(func(c notify.Change) {
		r.markSceneDirty()
		r.Changes.Emit(c.Field, c.Value)
	})
	r.scene.Add(nodes...)
	r.cameras.SetSubject(car)
	r.Changes.Emit(FieldCar, car.Source().ID())
}

// selectSkin applies skinID, DefaultSkin included, so a car restored from
// the cache shows the requested skin rather than the one it was evicted with.
func (r *Renderer) selectSkin(car *model.Car, skinID string) {
	if skinID == model.DefaultSkin && len(car.Skins()) == 0 {
		return
	}
	if err := car.SelectSkin(skinID); err != nil {
		r.log.Warn("skin not applied", zap.String("skin", skinID), zap.Error(err))
	}
}

func (r *Renderer) clearModel() {
	if r.car == nil {
		return
	}
	r.evict("")
	r.Changes.Emit(FieldCar, "")
}
