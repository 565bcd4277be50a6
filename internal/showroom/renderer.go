// Package showroom drives the car viewer: it swaps and caches car models,
// owns the scene and camera, and prepares shadow and reflection passes
// before each frame.
//
// A Renderer belongs to one goroutine, the one owning the GPU device.
// Background work (model decoding, remote commands) reaches it only through
// Post, and runs when the owner calls Tick or RunPending.
package showroom

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/engine/reflection"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/internal/engine/shadow"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/pkg/math"
)

// Property names emitted on Renderer.Changes in addition to the forwarded
// camera and car properties.
const (
	FieldCar         = "car"
	FieldLight       = "light"
	FieldShadows     = "shadows"
	FieldReflections = "reflections"
	// FieldLoadError carries the message of a failed background load.
	FieldLoadError = "load_error"
)

// ErrDisposed is returned by operations on a disposed renderer.
var ErrDisposed = errors.New("renderer disposed")

// Loader decodes model files. It is called from background goroutines.
type Loader interface {
	Load(ctx context.Context, src model.Source) (*model.Data, error)
}

// Shadows renders the light depth map.
type Shadows interface {
	Update(lightDir math.Vec3, box math.AABB, draw func(scene.Pass) error) error
	Clear()
	Target() gpu.ShadowTarget
	ViewProj() math.Mat4
	Release()
}

// Reflection renders the environment cubemap.
type Reflection interface {
	// Update moves the capture point and reports whether a redraw is due.
	Update(center math.Vec3) bool
	DrawScene(draw func(scene.Pass) error) error
	Target() gpu.CubemapTarget
	Release()
}

// Hooks let the host extend the renderer. Every field is optional.
type Hooks struct {
	// ExtendCar returns extra nodes built for a newly constructed car. They
	// join the scene with it and are cached and released together with it.
	ExtendCar func(car *model.Car) []scene.Node
	// NewShadows replaces the default directional shadow map.
	NewShadows func(dev gpu.Device) (Shadows, error)
	// NewReflection replaces the default cubemap.
	NewReflection func(dev gpu.Device) (Reflection, error)
	// PrepareCamera adjusts every camera before it becomes active.
	PrepareCamera func(camera.Camera) camera.Camera
	// PrepareEffect runs after the frame uniforms are pushed.
	PrepareEffect func(effect gpu.Effect, eye math.Vec3)
}

// Options configure a Renderer.
type Options struct {
	// CacheSize is how many evicted cars keep their GPU objects. Zero disables caching.
	CacheSize int

	Shadows             bool
	ShadowResolution    int32
	Reflections         bool
	CubemapResolution   int32
	ReflectionThreshold float32

	// DelayedBoundingBoxUpdate recomputes the scene box one frame after a change.
	DelayedBoundingBoxUpdate bool
	AnimationMultiplier      float32
	// Light points towards the light. It is normalized.
	Light math.Vec3

	Camera camera.Options
}

// DefaultOptions returns the showroom defaults.
func DefaultOptions() Options {
	return Options{
		CacheSize:           2,
		Shadows:             true,
		ShadowResolution:    shadow.DefaultResolution,
		Reflections:         true,
		CubemapResolution:   reflection.DefaultResolution,
		ReflectionThreshold: reflection.DefaultThreshold,
		AnimationMultiplier: 1,
		Light:               math.Vec3{X: -0.2, Y: 1.0, Z: 0.8},
		Camera:              camera.DefaultOptions(),
	}
}

// Renderer is the showroom orchestrator.
type Renderer struct {
	// Changes carries renderer, camera and active car property changes.
	Changes notify.Notifier

	dev    gpu.Device
	loader Loader
	opts   Options
	hooks  Hooks
	log    *zap.Logger

	scene   *scene.Graph
	cameras *camera.Controller

	car       *model.Car
	carNodes  []scene.Node
	carCancel func()
	cache     []cacheEntry
	lod       int // applied to the next car when no car is active
	backdrop  *backdrop

	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	seq    uint64
	cancel context.CancelFunc

	shadows            Shadows
	reflection         Reflection
	shadowsEnabled     bool
	shadowsWereEnabled bool
	shadowCenter       math.Vec3
	shadowValid        bool
	reflectionsEnabled bool
	reflectionDirty    bool
	light              math.Vec3

	box         math.AABB
	hasBox      bool
	sceneDirty  bool
	bboxPending bool
	dirty       bool

	initialized bool
	disposed    bool
}

// New creates a renderer with an empty scene. Call Initialize once the
// first model is set and before drawing.
func New(dev gpu.Device, loader Loader, opts Options, hooks Hooks) *Renderer {
	if opts.AnimationMultiplier == 0 {
		opts.AnimationMultiplier = 1
	}
	if hooks.PrepareCamera != nil {
		opts.Camera.Prepare = hooks.PrepareCamera
	}

	r := &Renderer{
		dev:                dev,
		loader:             loader,
		opts:               opts,
		hooks:              hooks,
		log:                logger.Named("showroom"),
		scene:              scene.New(),
		cameras:            camera.NewController(opts.Camera),
		lod:                -1,
		wake:               make(chan struct{}, 1),
		shadowsEnabled:     opts.Shadows,
		reflectionsEnabled: opts.Reflections,
		reflectionDirty:    true,
		sceneDirty:         true,
		dirty:              true,
	}

	light := opts.Light
	if light == (math.Vec3{}) {
		light = DefaultOptions().Light
	}
	r.light = light.Normalize()

	r.scene.Updated.Subscribe(r.markSceneDirty)
	r.cameras.Changes.Subscribe(func(c notify.Change) { r.Changes.Emit(c.Field, c.Value) })
	return r
}

func (r *Renderer) markSceneDirty() {
	r.sceneDirty = true
	r.reflectionDirty = true
	r.dirty = true
}

// Initialize frames the camera on the current scene and creates the shadow
// and reflection targets that are enabled.
func (r *Renderer) Initialize() error {
	if r.disposed {
		return ErrDisposed
	}
	r.scene.UpdateBoundingBox()
	r.box, r.hasBox = r.scene.BoundingBox()
	r.cameras.Init(camera.DefaultOrbit(r.box, r.hasBox))

	if r.shadowsEnabled {
		if err := r.ensureShadows(); err != nil {
			return err
		}
	}
	if r.reflectionsEnabled {
		if err := r.ensureReflection(); err != nil {
			return err
		}
	}
	r.initialized = true
	return nil
}

func (r *Renderer) ensureShadows() error {
	if r.shadows != nil {
		return nil
	}
	var err error
	if r.hooks.NewShadows != nil {
		r.shadows, err = r.hooks.NewShadows(r.dev)
	} else {
		r.shadows, err = newDefaultShadows(r.dev, r.opts.ShadowResolution)
	}
	return err
}

func (r *Renderer) ensureReflection() error {
	if r.reflection != nil {
		return nil
	}
	var err error
	if r.hooks.NewReflection != nil {
		r.reflection, err = r.hooks.NewReflection(r.dev)
	} else {
		r.reflection, err = newDefaultReflection(r.dev, r.opts.CubemapResolution, r.opts.ReflectionThreshold)
	}
	return err
}

// newDefaultShadows avoids storing a typed nil in the interface on failure.
func newDefaultShadows(dev gpu.Device, resolution int32) (Shadows, error) {
	s, err := shadow.New(dev, resolution)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newDefaultReflection(dev gpu.Device, resolution int32, threshold float32) (Reflection, error) {
	c, err := reflection.New(dev, resolution, threshold)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Dispose cancels pending loads and releases every GPU object: the active
// car, the cache, and the shadow and reflection targets.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.supersede()
	r.detachCar().release()
	for _, e := range r.cache {
		e.release()
	}
	r.cache = nil
	r.backdrop = nil
	r.scene.Release()
	if r.shadows != nil {
		r.shadows.Release()
		r.shadows = nil
	}
	if r.reflection != nil {
		r.reflection.Release()
		r.reflection = nil
	}
	r.mu.Lock()
	r.tasks = nil
	r.mu.Unlock()
	r.disposed = true
}

// Scene returns the scene graph.
func (r *Renderer) Scene() *scene.Graph {
	return r.scene
}

// Camera returns the camera controller.
func (r *Renderer) Camera() *camera.Controller {
	return r.cameras
}

// Car returns the active car, or nil.
func (r *Renderer) Car() *model.Car {
	return r.car
}

// Initialized reports whether Initialize succeeded.
func (r *Renderer) Initialized() bool {
	return r.initialized
}

// Post queues fn to run on the owning goroutine. It is safe to call from
// any goroutine.
func (r *Renderer) Post(fn func()) {
	r.mu.Lock()
	r.tasks = append(r.tasks, fn)
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Wake receives a value after Post, so hosts that block between frames
// know to call RunPending.
func (r *Renderer) Wake() <-chan struct{} {
	return r.wake
}

// RunPending runs every queued task in order and reports how many ran.
func (r *Renderer) RunPending() int {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}
