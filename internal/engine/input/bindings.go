package input

import (
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/showroom"
)

const (
	rotateSensitivity = 0.005
	zoomSensitivity   = 0.1
)

// Binding is the command a key runs, with an alternative when Shift is held.
type Binding struct {
	Command showroom.Command
	Shift   *showroom.Command
}

// Bindings maps keys to commands.
type Bindings map[sdl.Scancode]Binding

func cmd(name string, value ...string) showroom.Command {
	c := showroom.Command{Name: name}
	if len(value) > 0 {
		c.Value = value[0]
	}
	return c
}

func shifted(name string, value ...string) *showroom.Command {
	c := cmd(name, value...)
	return &c
}

// DefaultBindings returns the built-in keyboard layout.
func DefaultBindings() Bindings {
	return Bindings{
		sdl.SCANCODE_L:        {Command: cmd(showroom.CmdLights)},
		sdl.SCANCODE_B:        {Command: cmd(showroom.CmdBrakeLights)},
		sdl.SCANCODE_Q:        {Command: cmd(showroom.CmdLeftDoor)},
		sdl.SCANCODE_E:        {Command: cmd(showroom.CmdRightDoor)},
		sdl.SCANCODE_A:        {Command: cmd(showroom.CmdSteer, "-200"), Shift: shifted(showroom.CmdSteer, "-540")},
		sdl.SCANCODE_D:        {Command: cmd(showroom.CmdSteer, "200"), Shift: shifted(showroom.CmdSteer, "540")},
		sdl.SCANCODE_S:        {Command: cmd(showroom.CmdSteer, "0")},
		sdl.SCANCODE_C:        {Command: cmd(showroom.CmdNextCamera)},
		sdl.SCANCODE_X:        {Command: cmd(showroom.CmdNextExtraCamera)},
		sdl.SCANCODE_HOME:     {Command: cmd(showroom.CmdReset)},
		sdl.SCANCODE_R:        {Command: cmd(showroom.CmdAutoRotate)},
		sdl.SCANCODE_PAGEUP:   {Command: cmd(showroom.CmdNextSkin), Shift: shifted(showroom.CmdPreviousSkin)},
		sdl.SCANCODE_PAGEDOWN: {Command: cmd(showroom.CmdNextLod), Shift: shifted(showroom.CmdPreviousLod)},
		sdl.SCANCODE_H:        {Command: cmd(showroom.CmdShadows)},
		sdl.SCANCODE_G:        {Command: cmd(showroom.CmdReflections)},
		sdl.SCANCODE_F5:       {Command: cmd(showroom.CmdReload)},
	}
}

// Target receives mapped input.
type Target interface {
	Execute(cmd showroom.Command) error
	Camera() *camera.Controller
	MarkDirty()
}

// Controller turns raw events into showroom commands and camera moves.
type Controller struct {
	bindings Bindings
	dragging bool
	log      *zap.Logger
}

// NewController uses bindings, or DefaultBindings when nil.
func NewController(bindings Bindings) *Controller {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Controller{bindings: bindings, log: logger.Named("input")}
}

// Apply handles one frame of events.
func (c *Controller) Apply(t Target, events []Event) {
	for _, e := range events {
		switch e.Type {
		case EventKeyDown:
			b, ok := c.bindings[e.Key]
			if !ok {
				continue
			}
			command := b.Command
			if e.Shift && b.Shift != nil {
				command = *b.Shift
			}
			if err := t.Execute(command); err != nil {
				c.log.Debug("key command failed", zap.String("command", command.Name), zap.Error(err))
			}

		case EventMouseDown:
			if e.Button == sdl.BUTTON_LEFT {
				c.dragging = true
			}
		case EventMouseUp:
			if e.Button == sdl.BUTTON_LEFT {
				c.dragging = false
			}
		case EventMouseMove:
			if c.dragging && (e.DeltaX != 0 || e.DeltaY != 0) {
				t.Camera().Rotate(float32(e.DeltaX), float32(e.DeltaY), rotateSensitivity)
			}
		case EventMouseWheel:
			t.Camera().Zoom(-e.Wheel, zoomSensitivity)

		case EventWindowResize:
			if e.Height > 0 {
				t.Camera().SetAspect(float32(e.Width) / float32(e.Height))
				t.MarkDirty()
			}
		}
	}
}
