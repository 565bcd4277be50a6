package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/pkg/math"
)

// DefaultSkin selects the first skin the model provides.
const DefaultSkin = ""

// Property names emitted on Car.Changes.
const (
	FieldLod         = "lod"
	FieldSkin        = "skin"
	FieldLights      = "lights"
	FieldBrakeLights = "brake_lights"
	FieldLeftDoor    = "left_door"
	FieldRightDoor   = "right_door"
	FieldSteer       = "steer"
)

var (
	// ErrReleased is returned when drawing a car whose GPU objects are gone.
	ErrReleased = errors.New("car released")
	// ErrUnknownSkin is returned by SelectSkin for ids the model lacks.
	ErrUnknownSkin = errors.New("unknown skin")
)

// State is the user-controlled animation state copied between cars on swap.
type State struct {
	Lights        bool
	BrakeLights   bool
	LeftDoorOpen  bool
	RightDoorOpen bool
	SteerDeg      float32
}

// Car is a renderable model: GPU meshes per LOD, skins and animation state.
// It implements scene.Node and camera.Subject. Methods must be called from
// the goroutine owning the GPU device.
type Car struct {
	Changes notify.Notifier

	data      *Data
	dev       gpu.Device
	lods      [][]*part
	lod       int
	skin      int
	textures  map[int]map[string]gpu.Texture
	transform math.Mat4

	state     State
	leftDoor  float32
	rightDoor float32
	clock     float32

	interior map[camera.Interior]camera.Fixed
	extra    []camera.Fixed

	changed             notify.Signal
	camerasChanged      notify.Signal
	extraCamerasChanged notify.Signal

	released bool
}

var (
	_ scene.Node       = (*Car)(nil)
	_ scene.Observable = (*Car)(nil)
	_ camera.Subject   = (*Car)(nil)
)

// New uploads data and selects skinID. On failure every object created so
// far is released and a *gpu.ResourceError is returned.
func New(dev gpu.Device, data *Data, skinID string) (*Car, error) {
	data.Prepare()

	c := &Car{
		data:      data,
		dev:       dev,
		skin:      -1,
		textures:  make(map[int]map[string]gpu.Texture),
		transform: math.Identity(),
		lods:      make([][]*part, len(data.LODs)),
	}

	for i, lod := range data.LODs {
		for _, md := range lod.Meshes {
			mesh, err := dev.NewMesh(md)
			if err != nil {
				c.Release()
				return nil, resourceError("mesh", md.Name, err)
			}
			c.lods[i] = append(c.lods[i], newPart(md, mesh))
		}
	}

	c.setCameras(data.Cameras)

	if len(data.Skins) > 0 {
		err := c.SelectSkin(skinID)
		if errors.Is(err, ErrUnknownSkin) {
			err = c.selectSkinIndex(0)
		}
		if err != nil {
			c.Release()
			return nil, err
		}
	}
	return c, nil
}

func resourceError(kind, name string, err error) error {
	var re *gpu.ResourceError
	if errors.As(err, &re) {
		return err
	}
	return &gpu.ResourceError{Kind: kind, Name: name, Err: err}
}

// Source returns the file the car was loaded from.
func (c *Car) Source() Source {
	return c.data.Source
}

// Data returns the decoded model the car was built from.
func (c *Car) Data() *Data {
	return c.data
}

// Name returns the display name.
func (c *Car) Name() string {
	if c.data.Name != "" {
		return c.data.Name
	}
	return c.data.Source.ID()
}

// Released reports whether Release was called.
func (c *Car) Released() bool {
	return c.released
}

// Release frees every mesh and texture. Calling it twice is a no-op.
func (c *Car) Release() {
	if c.released {
		return
	}
	c.released = true
	for _, parts := range c.lods {
		for _, p := range parts {
			p.mesh.Release()
		}
	}
	for _, set := range c.textures {
		for _, tex := range set {
			tex.Release()
		}
	}
	c.textures = nil
}

// OnChanged implements scene.Observable: it fires when the car's geometry
// or placement changes.
func (c *Car) OnChanged(fn func()) func() {
	return c.changed.Subscribe(fn)
}

// Transform returns the model-to-world matrix.
func (c *Car) Transform() math.Mat4 {
	return c.transform
}

// SetTransform places the car in the world.
func (c *Car) SetTransform(m math.Mat4) {
	c.transform = m
	c.changed.Fire()
	c.camerasChanged.Fire()
	c.extraCamerasChanged.Fire()
}

// BoundingBox returns the world-space box of the current LOD.
func (c *Car) BoundingBox() (math.AABB, bool) {
	box := c.data.Bounds(c.lod)
	if box.IsEmpty() {
		return box, false
	}
	return box.Transform(c.transform), true
}

// Triangles returns the triangle count of the current LOD.
func (c *Car) Triangles() int {
	return c.data.Triangles(c.lod)
}

// LodCount returns the number of levels of detail.
func (c *Car) LodCount() int {
	return len(c.lods)
}

// CurrentLod returns the selected level of detail.
func (c *Car) CurrentLod() int {
	return c.lod
}

// SetLod selects a level of detail. Out of range values are ignored.
func (c *Car) SetLod(lod int) bool {
	if lod < 0 || lod >= len(c.lods) {
		return false
	}
	if lod == c.lod {
		return true
	}
	c.lod = lod
	c.changed.Fire()
	c.Changes.Emit(FieldLod, lod)
	return true
}

// LodInformation describes the current LOD for the overlay.
func (c *Car) LodInformation() string {
	if len(c.lods) == 0 {
		return ""
	}
	lod := c.data.LODs[c.lod]
	out := "infinity"
	if lod.Out > 0 {
		out = fmt.Sprintf("%g", lod.Out)
	}
	return fmt.Sprintf("LOD #%d (%d in total; shown from %g to %s)", c.lod+1, len(c.lods), lod.In, out)
}

// Skins returns the skin ids in order.
func (c *Car) Skins() []string {
	ids := make([]string, len(c.data.Skins))
	for i, s := range c.data.Skins {
		ids[i] = s.ID
	}
	return ids
}

// CurrentSkin returns the selected skin id, empty when the model has none.
func (c *Car) CurrentSkin() string {
	if c.skin < 0 {
		return ""
	}
	return c.data.Skins[c.skin].ID
}

// SkinInformation describes the current skin for the overlay.
func (c *Car) SkinInformation() string {
	if c.skin < 0 {
		return ""
	}
	return fmt.Sprintf("%s (%d/%d)", c.CurrentSkin(), c.skin+1, len(c.data.Skins))
}

// SelectSkin switches to the skin with the given id; DefaultSkin picks the first.
// Textures are uploaded the first time a skin is shown.
func (c *Car) SelectSkin(id string) error {
	if len(c.data.Skins) == 0 {
		return fmt.Errorf("%w: %q (model has no skins)", ErrUnknownSkin, id)
	}
	if id == DefaultSkin {
		return c.selectSkinIndex(0)
	}
	for i, s := range c.data.Skins {
		if s.ID == id {
			return c.selectSkinIndex(i)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSkin, id)
}

// SelectNextSkin cycles forward through the skins.
func (c *Car) SelectNextSkin() error {
	n := len(c.data.Skins)
	if n == 0 {
		return nil
	}
	return c.selectSkinIndex((c.skin + 1) % n)
}

// SelectPreviousSkin cycles backward through the skins.
func (c *Car) SelectPreviousSkin() error {
	n := len(c.data.Skins)
	if n == 0 {
		return nil
	}
	return c.selectSkinIndex((c.skin + n - 1) % n)
}

func (c *Car) selectSkinIndex(i int) error {
	if c.released {
		return ErrReleased
	}
	if _, ok := c.textures[i]; !ok {
		if err := c.uploadSkin(i); err != nil {
			return err
		}
	}
	if i == c.skin {
		return nil
	}
	c.skin = i
	c.Changes.Emit(FieldSkin, c.data.Skins[i].ID)
	return nil
}

func (c *Car) uploadSkin(i int) error {
	skin := c.data.Skins[i]
	set := make(map[string]gpu.Texture, len(skin.Textures))
	for material, img := range skin.Textures {
		tex, err := c.dev.NewTexture(img)
		if err != nil {
			for _, t := range set {
				t.Release()
			}
			return resourceError("texture", skin.ID+"/"+material, err)
		}
		set[material] = tex
	}
	c.textures[i] = set
	return nil
}

// State returns the animation state.
func (c *Car) State() State {
	return c.state
}

// SetState applies every field of s, emitting a change for each that differs.
func (c *Car) SetState(s State) {
	c.SetLights(s.Lights)
	c.SetBrakeLights(s.BrakeLights)
	c.SetLeftDoorOpen(s.LeftDoorOpen)
	c.SetRightDoorOpen(s.RightDoorOpen)
	c.SetSteerDeg(s.SteerDeg)
}

// SetLights switches the headlights.
func (c *Car) SetLights(v bool) {
	if v != c.state.Lights {
		c.state.Lights = v
		c.Changes.Emit(FieldLights, v)
	}
}

// SetBrakeLights switches the brake lights.
func (c *Car) SetBrakeLights(v bool) {
	if v != c.state.BrakeLights {
		c.state.BrakeLights = v
		c.Changes.Emit(FieldBrakeLights, v)
	}
}

// SetLeftDoorOpen starts opening or closing the left door.
func (c *Car) SetLeftDoorOpen(v bool) {
	if v != c.state.LeftDoorOpen {
		c.state.LeftDoorOpen = v
		c.Changes.Emit(FieldLeftDoor, v)
	}
}

// SetRightDoorOpen starts opening or closing the right door.
func (c *Car) SetRightDoorOpen(v bool) {
	if v != c.state.RightDoorOpen {
		c.state.RightDoorOpen = v
		c.Changes.Emit(FieldRightDoor, v)
	}
}

// SetSteerDeg sets the steering wheel angle, clamped to one and a half turns.
func (c *Car) SetSteerDeg(v float32) {
	v = math.Clamp(v, -maxSteerDeg, maxSteerDeg)
	if v != c.state.SteerDeg {
		c.state.SteerDeg = v
		c.Changes.Emit(FieldSteer, v)
	}
}

// Clock returns the accumulated animation time in seconds.
func (c *Car) Clock() float32 {
	return c.clock
}

// OnTick advances the animation clock and door movement. It reports
// whether anything visible moved.
func (c *Car) OnTick(dt float32) bool {
	c.clock += dt
	var left, right bool
	c.leftDoor, left = approach(c.leftDoor, c.state.LeftDoorOpen, dt)
	c.rightDoor, right = approach(c.rightDoor, c.state.RightDoorOpen, dt)
	return left || right
}

// DoorProgress returns how far each door is open, from 0 to 1.
func (c *Car) DoorProgress() (left, right float32) {
	return c.leftDoor, c.rightDoor
}

// InteriorCamera returns the world-space camera of the given kind.
func (c *Car) InteriorCamera(kind camera.Interior) (camera.Fixed, bool) {
	f, ok := c.interior[kind]
	if !ok {
		return camera.Fixed{}, false
	}
	return f.Transform(c.transform), true
}

// ExtraCameraCount returns the number of scene-defined cameras.
func (c *Car) ExtraCameraCount() int {
	return len(c.extra)
}

// ExtraCamera returns a scene-defined camera in world space.
func (c *Car) ExtraCamera(index int) (camera.Fixed, bool) {
	if index < 0 || index >= len(c.extra) {
		return camera.Fixed{}, false
	}
	return c.extra[index].Transform(c.transform), true
}

// OnCamerasChanged calls fn whenever the interior cameras change.
func (c *Car) OnCamerasChanged(fn func()) func() {
	return c.camerasChanged.Subscribe(fn)
}

// OnExtraCamerasChanged calls fn whenever the extra camera list changes.
func (c *Car) OnExtraCamerasChanged(fn func()) func() {
	return c.extraCamerasChanged.Subscribe(fn)
}

// SetCameras replaces the camera nodes, for instance after the source was
// edited, and notifies camera subscribers.
func (c *Car) SetCameras(cameras []NamedCamera) {
	c.setCameras(cameras)
	c.camerasChanged.Fire()
	c.extraCamerasChanged.Fire()
}

func (c *Car) setCameras(cameras []NamedCamera) {
	c.interior = make(map[camera.Interior]camera.Fixed)
	c.extra = nil
	for _, nc := range cameras {
		if kind, ok := interiorKind(nc.Name); ok {
			c.interior[kind] = nc.Camera
			continue
		}
		c.extra = append(c.extra, nc.Camera)
	}
}

// interiorKind maps conventional camera node names to interior kinds.
func interiorKind(name string) (camera.Interior, bool) {
	switch strings.ToUpper(name) {
	case "DRIVER", "CAMERA_DRIVER", "FIRST_PERSON":
		return camera.Driver, true
	case "DASH", "DASHBOARD", "CAMERA_DASH":
		return camera.Dashboard, true
	case "BONNET", "HOOD", "CAMERA_BONNET":
		return camera.Bonnet, true
	case "BUMPER", "CAMERA_BUMPER":
		return camera.Bumper, true
	}
	return camera.None, false
}

// Draw draws the current LOD.
func (c *Car) Draw(dev gpu.Device, pass scene.Pass) error {
	if c.released {
		return fmt.Errorf("draw %s: %w", c.Name(), ErrReleased)
	}
	if c.lod >= len(c.lods) {
		return nil
	}
	textures := c.textures[c.skin]
	for _, p := range c.lods[c.lod] {
		if !c.visible(p) {
			continue
		}
		err := dev.Draw(gpu.DrawParams{
			Mesh:      p.mesh,
			Model:     c.transform.Mul(c.animate(p)).Mul(p.transform),
			ViewProj:  pass.ViewProj,
			Texture:   textures[p.material],
			DepthOnly: pass.Mode == scene.Shadow,
		})
		if err != nil {
			return fmt.Errorf("draw %s/%s: %w", c.Name(), p.name, err)
		}
	}
	return nil
}
