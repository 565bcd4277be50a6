package showroom

import (
	"context"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/gpu/gputest"
	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/pkg/math"
)

// perCar is the number of GPU objects one carData model needs: four meshes
// and the paint texture of the selected skin.
const perCar = 5

func box(name string, lo, hi math.Vec3) gpu.MeshData {
	corners := math.AABB{Min: lo, Max: hi}.Corners()
	vertices := make([]gpu.Vertex, len(corners))
	for i, c := range corners {
		vertices[i].Position = c.Array()
	}
	return gpu.MeshData{
		Name:      name,
		Vertices:  vertices,
		Indices:   []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7},
		Transform: math.Identity(),
		Material:  "paint",
	}
}

func carData(path string) *model.Data {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &model.Data{
		Source: model.Source{Path: path},
		Name:   name,
		LODs: []model.LOD{
			{Out: 20, Meshes: []gpu.MeshData{
				box("body", math.Vec3{X: -1, Z: -2}, math.Vec3{X: 1, Y: 1.3, Z: 2}),
				box("LIGHT_HEAD_L", math.Vec3{X: 0.6, Y: 0.6, Z: 1.9}, math.Vec3{X: 0.9, Y: 0.8, Z: 2}),
				box("DOOR_L", math.Vec3{X: 0.9, Y: 0.2, Z: -0.5}, math.Vec3{X: 1, Y: 1, Z: 0.6}),
			}},
			{In: 20, Meshes: []gpu.MeshData{
				box("body_lod_b", math.Vec3{X: -1, Z: -2}, math.Vec3{X: 1, Y: 1.2, Z: 2}),
			}},
		},
		Cameras: []model.NamedCamera{
			{Name: "DRIVER", Camera: camera.LookAt(math.Vec3{X: 0.4, Y: 1.1}, math.Vec3{X: 0.4, Y: 1.1, Z: 5}, 1, 0.05, 100)},
		},
		Skins: []model.Skin{
			{ID: "red", Textures: map[string]*image.RGBA{"paint": image.NewRGBA(image.Rect(0, 0, 2, 2))}},
			{ID: "blue", Textures: map[string]*image.RGBA{"paint": image.NewRGBA(image.Rect(0, 0, 2, 2))}},
		},
	}
}

// fakeLoader serves carData models. Sources with a gate block until the
// gate is closed; stubborn loads ignore cancellation while blocked.
type fakeLoader struct {
	mu       sync.Mutex
	calls    map[string]int
	fail     map[string]error
	gates    map[string]chan struct{}
	stubborn bool
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		calls: make(map[string]int),
		fail:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func (l *fakeLoader) Load(ctx context.Context, src model.Source) (*model.Data, error) {
	l.mu.Lock()
	l.calls[src.ID()]++
	gate, err, stubborn := l.gates[src.ID()], l.fail[src.ID()], l.stubborn
	l.mu.Unlock()

	if gate != nil {
		if stubborn {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return carData(src.Path), nil
}

func (l *fakeLoader) gate(path string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	g := make(chan struct{})
	l.gates[model.Source{Path: path}.ID()] = g
	return g
}

func (l *fakeLoader) setFail(path string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail[model.Source{Path: path}.ID()] = err
}

func (l *fakeLoader) count(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[model.Source{Path: path}.ID()]
}

// testOptions disables the effect passes so only car objects are live.
func testOptions() Options {
	opts := DefaultOptions()
	opts.Shadows = false
	opts.Reflections = false
	opts.Camera.AutoRotate = false
	return opts
}

func newTestRenderer(t *testing.T, opts Options) (*Renderer, *gputest.Device, *fakeLoader) {
	t.Helper()
	dev := gputest.New()
	loader := newFakeLoader()
	r := New(dev, loader, opts, Hooks{})
	t.Cleanup(r.Dispose)
	return r, dev, loader
}

func src(path string) model.Source {
	return model.Source{Path: path}
}

func mustSet(t *testing.T, r *Renderer, path string) {
	t.Helper()
	if err := r.SetModel(src(path), model.DefaultSkin); err != nil {
		t.Fatalf("SetModel(%s): %v", path, err)
	}
}

// wait pumps posted tasks until done settles.
func wait(t *testing.T, r *Renderer, done <-chan error) error {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-r.Wake():
			r.RunPending()
		case <-timeout:
			t.Fatal("request did not settle")
			return nil
		}
	}
}

func activeID(r *Renderer) string {
	if r.Car() == nil {
		return ""
	}
	return r.Car().Source().ID()
}
