package showroom

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/lighting"
	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/pkg/math"
)

// Command names accepted by Execute.
const (
	CmdCar             = "car"
	CmdReload          = "reload"
	CmdSkin            = "skin"
	CmdNextSkin        = "next_skin"
	CmdPreviousSkin    = "previous_skin"
	CmdLod             = "lod"
	CmdNextLod         = "next_lod"
	CmdPreviousLod     = "previous_lod"
	CmdCamera          = "camera"
	CmdNextCamera      = "next_camera"
	CmdExtraCamera     = "extra_camera"
	CmdNextExtraCamera = "next_extra_camera"
	CmdFov             = "fov"
	CmdReset           = "reset"
	CmdAutoRotate      = "auto_rotate"
	CmdLights          = "lights"
	CmdBrakeLights     = "brake_lights"
	CmdLeftDoor        = "left_door"
	CmdRightDoor       = "right_door"
	CmdSteer           = "steer"
	CmdShadows         = "shadows"
	CmdReflections     = "reflections"
	CmdLight           = "light"
)

var (
	// ErrUnknownCommand is returned by Execute for unrecognized names.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoCar is returned by commands that need an active car.
	ErrNoCar = errors.New("no active car")
)

// Command is a host or remote request, for instance {Name: "lights", Value: "on"}.
type Command struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Execute runs one command on the owning goroutine. Boolean values accept
// "on", "off", "toggle" and everything strconv.ParseBool does; an empty
// value toggles. The car and reload commands only start a background load:
// their outcome arrives through ExecuteAsync or as a FieldLoadError change.
func (r *Renderer) Execute(cmd Command) error {
	if r.disposed {
		return ErrDisposed
	}
	switch cmd.Name {
	case CmdCar:
		r.SetModelAsync(context.Background(), model.Source{Path: cmd.Value}, model.DefaultSkin)
		return nil
	case CmdReload:
		r.ReloadAsync(context.Background())
		return nil

	case CmdSkin:
		return r.withCar(func(c *model.Car) error { return c.SelectSkin(cmd.Value) })
	case CmdNextSkin:
		return r.SelectNextSkin()
	case CmdPreviousSkin:
		return r.SelectPreviousSkin()

	case CmdLod:
		n, err := strconv.Atoi(cmd.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		return r.SelectLod(n - 1)
	case CmdNextLod:
		return r.SelectNextLod()
	case CmdPreviousLod:
		return r.SelectPreviousLod()

	case CmdCamera:
		kind, ok := camera.ParseInterior(cmd.Value)
		if !ok {
			return fmt.Errorf("%s: unknown mode %q", cmd.Name, cmd.Value)
		}
		r.cameras.SetMode(kind)
	case CmdNextCamera:
		r.cameras.NextCamera()
	case CmdExtraCamera:
		n, err := strconv.Atoi(cmd.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		r.cameras.SetExtraCamera(n)
	case CmdNextExtraCamera:
		r.cameras.NextExtraCamera()
	case CmdFov:
		deg, err := strconv.ParseFloat(cmd.Value, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		r.cameras.ChangeFov(math.DegToRad(float32(deg)))
	case CmdReset:
		r.cameras.Reset()
	case CmdAutoRotate:
		return setBool(cmd, r.cameras.AutoRotate(), r.cameras.SetAutoRotate)

	case CmdLights:
		return r.withCar(func(c *model.Car) error { return setBool(cmd, c.State().Lights, c.SetLights) })
	case CmdBrakeLights:
		return r.withCar(func(c *model.Car) error { return setBool(cmd, c.State().BrakeLights, c.SetBrakeLights) })
	case CmdLeftDoor:
		return r.withCar(func(c *model.Car) error { return setBool(cmd, c.State().LeftDoorOpen, c.SetLeftDoorOpen) })
	case CmdRightDoor:
		return r.withCar(func(c *model.Car) error { return setBool(cmd, c.State().RightDoorOpen, c.SetRightDoorOpen) })
	case CmdSteer:
		deg, err := strconv.ParseFloat(cmd.Value, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		return r.withCar(func(c *model.Car) error {
			c.SetSteerDeg(float32(deg))
			return nil
		})

	case CmdShadows:
		return setBool(cmd, r.shadowsEnabled, r.SetShadowsEnabled)
	case CmdReflections:
		return setBool(cmd, r.reflectionsEnabled, r.SetReflectionsEnabled)
	case CmdLight:
		dir, err := lighting.ParseSun(cmd.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		r.SetLight(dir)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
	return nil
}

// ExecuteAsync runs cmd like Execute. The channel receives one value: the
// load result for the car and reload commands, Execute's result otherwise.
// A load superseded by a newer request reports context.Canceled.
func (r *Renderer) ExecuteAsync(ctx context.Context, cmd Command) <-chan error {
	switch {
	case r.disposed:
	case cmd.Name == CmdCar:
		return r.SetModelAsync(ctx, model.Source{Path: cmd.Value}, model.DefaultSkin)
	case cmd.Name == CmdReload:
		return r.ReloadAsync(ctx)
	}
	done := make(chan error, 1)
	done <- r.Execute(cmd)
	return done
}

func (r *Renderer) withCar(fn func(*model.Car) error) error {
	if r.car == nil {
		return ErrNoCar
	}
	return fn(r.car)
}

func setBool(cmd Command, current bool, set func(bool)) error {
	switch strings.ToLower(cmd.Value) {
	case "", "toggle":
		set(!current)
	case "on":
		set(true)
	case "off":
		set(false)
	default:
		v, err := strconv.ParseBool(cmd.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		set(v)
	}
	return nil
}

// SelectNextSkin cycles the active car's skin forward.
func (r *Renderer) SelectNextSkin() error {
	return r.withCar((*model.Car).SelectNextSkin)
}

// SelectPreviousSkin cycles the active car's skin backward.
func (r *Renderer) SelectPreviousSkin() error {
	return r.withCar((*model.Car).SelectPreviousSkin)
}

// SelectLod picks a level of detail. Without an active car the choice is
// kept for the next one.
func (r *Renderer) SelectLod(lod int) error {
	if r.car == nil {
		if lod < 0 {
			return fmt.Errorf("lod %d out of range", lod+1)
		}
		r.lod = lod
		return nil
	}
	if !r.car.SetLod(lod) {
		return fmt.Errorf("lod %d out of range (1-%d)", lod+1, r.car.LodCount())
	}
	return nil
}

// SelectNextLod cycles to the next level of detail.
func (r *Renderer) SelectNextLod() error {
	return r.withCar(func(c *model.Car) error {
		if n := c.LodCount(); n > 0 {
			c.SetLod((c.CurrentLod() + 1) % n)
		}
		return nil
	})
}

// SelectPreviousLod cycles to the previous level of detail.
func (r *Renderer) SelectPreviousLod() error {
	return r.withCar(func(c *model.Car) error {
		if n := c.LodCount(); n > 0 {
			c.SetLod((c.CurrentLod() + n - 1) % n)
		}
		return nil
	})
}

// Information describes the active car for an overlay.
func (r *Renderer) Information() string {
	if r.car == nil {
		return "No car"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.car.Name())
	fmt.Fprintf(&b, "Triangles: %d\n", r.car.Triangles())
	if lod := r.car.LodInformation(); lod != "" {
		fmt.Fprintf(&b, "%s\n", lod)
	}
	if skin := r.car.SkinInformation(); skin != "" {
		fmt.Fprintf(&b, "Skin: %s\n", skin)
	}
	fmt.Fprintf(&b, "Camera: %s", r.cameras.Mode())
	if i := r.cameras.ExtraCamera(); i != camera.NoExtra {
		fmt.Fprintf(&b, " (scene camera %d/%d)", i+1, r.car.ExtraCameraCount())
	}
	return b.String()
}
