// Package viewer wires the window, the GL device and the showroom renderer
// into the interactive frame loop.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/catalog"
	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/gpu/glgpu"
	"github.com/Faultbox/showroom/internal/engine/input"
	"github.com/Faultbox/showroom/internal/engine/loader"
	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/engine/screenshot"
	"github.com/Faultbox/showroom/internal/engine/window"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/internal/remote"
	"github.com/Faultbox/showroom/internal/showroom"
	"github.com/Faultbox/showroom/internal/watch"
	"github.com/Faultbox/showroom/pkg/math"
)

const title = "Showroom"

// idleWait bounds how long the loop sleeps when nothing needs drawing.
const idleWait = 50 * time.Millisecond

// reloadExts are the files whose change reloads the active car.
var reloadExts = []string{".gltf", ".glb", ".bin", ".png", ".jpg", ".jpeg", ".tga", ".bmp"}

// Viewer is the interactive showroom window.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	window   *window.Window
	dev      *glgpu.Device
	input    *input.Input
	controls *input.Controller

	renderer *showroom.Renderer
	catalog  *catalog.Catalog
	slot     *showroom.Slot
	server   *remote.Server
	watcher  *watch.Watcher
	shots    *screenshot.Capture

	shotPending bool

	ctx     context.Context
	cancel  context.CancelFunc
	cancels []func()
	running bool
}

// Options builds renderer options from the configuration.
func Options(cfg *config.Config) showroom.Options {
	opts := showroom.DefaultOptions()
	opts.CacheSize = cfg.Renderer.CacheSize
	opts.Shadows = cfg.Renderer.Shadows
	if cfg.Renderer.ShadowResolution > 0 {
		opts.ShadowResolution = cfg.Renderer.ShadowResolution
	}
	opts.Reflections = cfg.Renderer.Reflections
	if cfg.Renderer.CubemapResolution > 0 {
		opts.CubemapResolution = cfg.Renderer.CubemapResolution
	}
	if cfg.Renderer.ReflectionThreshold > 0 {
		opts.ReflectionThreshold = cfg.Renderer.ReflectionThreshold
	}
	opts.DelayedBoundingBoxUpdate = cfg.Renderer.DelayedBBoxUpdate
	opts.AnimationMultiplier = cfg.Renderer.AnimationMultiplier
	opts.Light = math.V3(cfg.Renderer.Light)

	opts.Camera = camera.DefaultOptions()
	if cfg.Camera.MinFovDegrees > 0 {
		opts.Camera.MinFov = math.DegToRad(cfg.Camera.MinFovDegrees)
	}
	if cfg.Camera.MaxFovDegrees > 0 {
		opts.Camera.MaxFov = math.DegToRad(cfg.Camera.MaxFovDegrees)
	}
	opts.Camera.AutoRotate = cfg.Camera.AutoRotate
	opts.Camera.AutoAdjustTarget = cfg.Camera.AutoAdjustTarget
	return opts
}

// New opens the window and loads the configured car and showroom.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{cfg: cfg, log: logger.Named("viewer")}
	v.ctx, v.cancel = context.WithCancel(context.Background())

	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Bool("fullscreen", cfg.Graphics.Fullscreen))

	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Device AFTER window, since the OpenGL context must exist
	if err := glgpu.Init(); err != nil {
		v.Close()
		return nil, err
	}
	v.dev, err = glgpu.New()
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	v.resize()

	ld := loader.New(loader.Options{MaxTextureSize: cfg.Renderer.MaxTextureSize})
	v.renderer = showroom.New(v.dev, ld, Options(cfg), showroom.Hooks{})
	v.catalog = catalog.Open(cfg.Data.CatalogDir)
	v.slot = showroom.NewSlot(v.renderer, v.catalog)
	v.cancels = append(v.cancels, v.slot.Changes.Subscribe(func(notify.Change) {
		v.updateTitle()
	}))
	v.shots = screenshot.New(filepath.Join(config.ConfigDir(), "screenshots"), "showroom")
	v.input = input.New()
	v.controls = input.NewController(nil)

	if err := v.load(); err != nil {
		v.Close()
		return nil, err
	}
	if err := v.startWatcher(); err != nil {
		v.log.Warn("hot reload disabled", zap.Error(err))
	}
	if cfg.Remote.Listen != "" {
		v.startRemote(cfg.Remote.Listen)
	}
	return v, nil
}

func (v *Viewer) load() error {
	if p := v.cfg.Data.Showroom; p != "" {
		if err := v.renderer.SetShowroom(v.ctx, model.Source{Path: p}); err != nil {
			v.log.Warn("showroom not loaded", zap.String("path", p), zap.Error(err))
		}
	}
	if p := v.cfg.Data.Car; p != "" {
		if err := v.renderer.SetModel(model.Source{Path: p}, v.cfg.Data.Skin); err != nil {
			v.log.Error("car not loaded", zap.String("path", p), zap.Error(err))
		}
	}
	v.renderer.Camera().SetAspect(v.aspect())
	if err := v.renderer.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	return nil
}

// startWatcher follows the directory of the active car.
func (v *Viewer) startWatcher() error {
	if !v.cfg.Watch.Enabled {
		return nil
	}
	w, err := watch.New(v.cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	v.watcher = w

	follow := func(id string) {
		dir := ""
		if id != "" {
			dir = filepath.Dir(id)
		}
		if err := w.Watch(dir); err != nil {
			v.log.Warn("car directory not watched", zap.String("dir", dir), zap.Error(err))
		}
	}
	v.cancels = append(v.cancels, v.renderer.Changes.Subscribe(func(c notify.Change) {
		if c.Field == showroom.FieldCar {
			id, _ := c.Value.(string)
			follow(id)
		}
	}))
	if car := v.renderer.Car(); car != nil {
		follow(car.Source().ID())
	}

	go func() {
		err := w.Run(v.ctx, func(c watch.Change) {
			v.renderer.Post(func() { v.reload(c) })
		})
		if err != nil {
			v.log.Warn("watcher stopped", zap.Error(err))
		}
	}()
	return nil
}

// reload runs on the frame loop goroutine.
func (v *Viewer) reload(c watch.Change) {
	car := v.renderer.Car()
	if car == nil || filepath.Dir(car.Source().ID()) != c.Root {
		return
	}
	v.catalog.Forget(filepath.Base(c.Root))
	if !c.Touches(reloadExts...) {
		v.updateTitle()
		return
	}
	v.log.Info("reloading car", zap.String("source", car.Source().ID()), zap.Int("files", len(c.Paths)))
	done := v.renderer.ReloadAsync(v.ctx)
	go func() {
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			v.log.Warn("reload failed", zap.Error(err))
		}
	}()
}

func (v *Viewer) startRemote(addr string) {
	v.server = remote.New(v.renderer)
	v.cancels = append(v.cancels, v.server.Watch(&v.renderer.Changes))
	go func() {
		if err := v.server.ListenAndServe(v.ctx, addr); err != nil {
			v.log.Error("remote control stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
}

func (v *Viewer) updateTitle() {
	if t := v.slot.Title(); t != "" {
		v.window.SetTitle(title + " - " + t)
		return
	}
	v.window.SetTitle(title)
}

func (v *Viewer) aspect() float32 {
	w, h := v.window.DrawableSize()
	if h == 0 {
		return 1
	}
	return float32(w) / float32(h)
}

func (v *Viewer) resize() {
	w, h := v.window.DrawableSize()
	v.dev.Resize(int32(w), int32(h))
}

// Run drives the frame loop until the window closes.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var minFrame time.Duration
	if v.cfg.Graphics.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(v.cfg.Graphics.FPSLimit)
	}

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents(v.input.Events())

		// 2. Advance animations and the camera
		if !v.renderer.Tick(float32(dt)) {
			v.idle()
			continue
		}

		// 3. Render
		v.dev.BeginFrame()
		if err := v.renderer.Render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if v.shotPending {
			v.shotPending = false
			v.capture()
		}

		// 4. Present (swap buffers)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", time.Duration(dt*float64(time.Second))))
			frameCount = 0
			fpsTimer = time.Now()
		}
		if elapsed := time.Since(now); elapsed < minFrame {
			time.Sleep(minFrame - elapsed)
		}
	}

	return nil
}

// idle waits for posted work or the next input poll.
func (v *Viewer) idle() {
	select {
	case <-v.renderer.Wake():
		v.renderer.RunPending()
	case <-time.After(idleWait):
	}
}

func (v *Viewer) handleEvents(events []input.Event) {
	for _, e := range events {
		switch e.Type {
		case input.EventWindowResize:
			v.resize()
		case input.EventKeyDown:
			switch e.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_F11:
				v.window.ToggleFullscreen()
			case sdl.SCANCODE_F12:
				v.shotPending = true
				v.renderer.MarkDirty()
			}
		case input.EventDrop:
			v.open(e.File)
		}
	}
	v.controls.Apply(v.renderer, events)
}

func (v *Viewer) capture() {
	pixels, w, h := v.dev.ReadPixels()
	path, err := v.shots.FromPixels(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// open loads a dropped model file in the background.
func (v *Viewer) open(path string) {
	v.log.Info("opening dropped file", zap.String("path", path))
	done := v.renderer.SetModelAsync(v.ctx, model.Source{Path: path}, model.DefaultSkin)
	go func() {
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			v.log.Warn("dropped file not loaded", zap.String("path", path), zap.Error(err))
		}
	}()
}

// Close releases everything in reverse order.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")
	v.cancel()
	for _, cancel := range v.cancels {
		cancel()
	}
	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.slot != nil {
		v.slot.Close()
	}
	if v.renderer != nil {
		v.renderer.Dispose()
	}
	if v.dev != nil {
		v.dev.Destroy()
	}
	if v.window != nil {
		v.window.Close()
	}
}
