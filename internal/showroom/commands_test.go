package showroom

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/pkg/math"
)

func TestExecute(t *testing.T) {
	r, _, _ := newTestRenderer(t, effectOptions())
	mustSet(t, r, "a.gltf")
	car := r.Car()

	tests := []struct {
		cmd   Command
		check func() bool
	}{
		{Command{Name: CmdLights, Value: "on"}, func() bool { return car.State().Lights }},
		{Command{Name: CmdLights}, func() bool { return !car.State().Lights }},
		{Command{Name: CmdBrakeLights, Value: "true"}, func() bool { return car.State().BrakeLights }},
		{Command{Name: CmdLeftDoor, Value: "toggle"}, func() bool { return car.State().LeftDoorOpen }},
		{Command{Name: CmdRightDoor, Value: "ON"}, func() bool { return car.State().RightDoorOpen }},
		{Command{Name: CmdSteer, Value: "45"}, func() bool { return car.State().SteerDeg == 45 }},
		{Command{Name: CmdSkin, Value: "blue"}, func() bool { return car.CurrentSkin() == "blue" }},
		{Command{Name: CmdNextSkin}, func() bool { return car.CurrentSkin() == "red" }},
		{Command{Name: CmdPreviousSkin}, func() bool { return car.CurrentSkin() == "blue" }},
		{Command{Name: CmdLod, Value: "2"}, func() bool { return car.CurrentLod() == 1 }},
		{Command{Name: CmdNextLod}, func() bool { return car.CurrentLod() == 0 }},
		{Command{Name: CmdPreviousLod}, func() bool { return car.CurrentLod() == 1 }},
		{Command{Name: CmdCamera, Value: "driver"}, func() bool { return r.Camera().Mode() == camera.Driver }},
		{Command{Name: CmdCamera, Value: "none"}, func() bool { return r.Camera().IsOrbiting() }},
		{Command{Name: CmdFov, Value: "30"}, func() bool {
			return math.Abs(r.Camera().Orbit().FovY-math.DegToRad(30)) < 1e-5
		}},
		{Command{Name: CmdAutoRotate, Value: "on"}, func() bool { return r.Camera().AutoRotate() }},
		{Command{Name: CmdShadows, Value: "off"}, func() bool { return !r.ShadowsEnabled() }},
		{Command{Name: CmdReflections, Value: "0"}, func() bool { return !r.ReflectionsEnabled() }},
		{Command{Name: CmdLight, Value: "0,90"}, func() bool { return r.Light().Y > 0.9999 }},
	}

	for _, tt := range tests {
		if err := r.Execute(tt.cmd); err != nil {
			t.Errorf("Execute(%+v): %v", tt.cmd, err)
			continue
		}
		if !tt.check() {
			t.Errorf("Execute(%+v) had no effect", tt.cmd)
		}
	}
}

func TestExecuteErrors(t *testing.T) {
	r, _, _ := newTestRenderer(t, testOptions())

	if err := r.Execute(Command{Name: CmdLights, Value: "on"}); !errors.Is(err, ErrNoCar) {
		t.Errorf("lights without car = %v", err)
	}
	if err := r.Execute(Command{Name: "warp"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown = %v", err)
	}

	mustSet(t, r, "a.gltf")
	for _, cmd := range []Command{
		{Name: CmdLights, Value: "maybe"},
		{Name: CmdLod, Value: "7"},
		{Name: CmdLod, Value: "first"},
		{Name: CmdCamera, Value: "roof"},
		{Name: CmdFov, Value: "wide"},
		{Name: CmdSkin, Value: "purple"},
		{Name: CmdLight, Value: "high"},
	} {
		if err := r.Execute(cmd); err == nil {
			t.Errorf("Execute(%+v) succeeded", cmd)
		}
	}
}

func TestExecuteCarLoadsAsync(t *testing.T) {
	r, _, _ := newTestRenderer(t, testOptions())
	if err := r.Execute(Command{Name: CmdCar, Value: "b.gltf"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for activeID(r) != "b.gltf" {
		select {
		case <-r.Wake():
			r.RunPending()
		case <-deadline:
			t.Fatal("car command never applied")
		}
	}
}

func TestExecuteReportsLoadErrors(t *testing.T) {
	r, _, loader := newTestRenderer(t, testOptions())
	mustSet(t, r, "a.gltf")
	errMissing := errors.New("file does not exist")
	loader.setFail("missing.gltf", errMissing)

	var loadErrors []any
	r.Changes.Subscribe(func(c notify.Change) {
		if c.Field == FieldLoadError {
			loadErrors = append(loadErrors, c.Value)
		}
	})

	done := r.ExecuteAsync(context.Background(), Command{Name: CmdCar, Value: "missing.gltf"})
	if err := wait(t, r, done); !errors.Is(err, errMissing) {
		t.Errorf("ExecuteAsync(car) = %v, want %v", err, errMissing)
	}
	if activeID(r) != "a.gltf" {
		t.Errorf("active = %q after failed load", activeID(r))
	}
	if len(loadErrors) != 1 {
		t.Fatalf("load errors = %v", loadErrors)
	}

	if err := r.Execute(Command{Name: CmdCar, Value: "missing.gltf"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for len(loadErrors) < 2 {
		select {
		case <-r.Wake():
			r.RunPending()
		case <-deadline:
			t.Fatal("load error from Execute never reported")
		}
	}
	if msg, _ := loadErrors[1].(string); !strings.Contains(msg, "file does not exist") {
		t.Errorf("load error = %v", loadErrors[1])
	}
}

func TestExecuteAsync(t *testing.T) {
	r, _, loader := newTestRenderer(t, testOptions())

	if err := <-r.ExecuteAsync(context.Background(), Command{Name: CmdLights}); !errors.Is(err, ErrNoCar) {
		t.Errorf("lights without car = %v", err)
	}
	if err := wait(t, r, r.ExecuteAsync(context.Background(), Command{Name: CmdCar, Value: "a.gltf"})); err != nil {
		t.Fatal(err)
	}
	if err := wait(t, r, r.ExecuteAsync(context.Background(), Command{Name: CmdReload})); err != nil {
		t.Fatal(err)
	}
	if loader.count("a.gltf") != 2 || activeID(r) != "a.gltf" {
		t.Errorf("decoded %d times, active = %q", loader.count("a.gltf"), activeID(r))
	}

	first := r.ExecuteAsync(context.Background(), Command{Name: CmdCar, Value: "b.gltf"})
	second := r.ExecuteAsync(context.Background(), Command{Name: CmdCar, Value: "c.gltf"})
	if err := wait(t, r, first); !errors.Is(err, context.Canceled) {
		t.Errorf("superseded car command = %v", err)
	}
	if err := wait(t, r, second); err != nil {
		t.Fatal(err)
	}

	r.Dispose()
	if err := <-r.ExecuteAsync(context.Background(), Command{Name: CmdCar, Value: "a.gltf"}); !errors.Is(err, ErrDisposed) {
		t.Errorf("after Dispose = %v", err)
	}
}

func TestPendingLod(t *testing.T) {
	r, _, _ := newTestRenderer(t, testOptions())
	if err := r.SelectLod(-1); err == nil {
		t.Error("negative lod accepted")
	}
	if err := r.SelectLod(1); err != nil {
		t.Fatal(err)
	}
	mustSet(t, r, "a.gltf")
	if r.Car().CurrentLod() != 1 {
		t.Errorf("lod = %d, want pending choice applied", r.Car().CurrentLod())
	}
	mustSet(t, r, "b.gltf")
	if r.Car().CurrentLod() != 0 {
		t.Errorf("pending lod applied twice")
	}
}

func TestInformation(t *testing.T) {
	r, _, _ := newTestRenderer(t, testOptions())
	if r.Information() != "No car" {
		t.Errorf("Information() = %q", r.Information())
	}

	mustSet(t, r, "a.gltf")
	info := r.Information()
	for _, want := range []string{
		"a\n",
		"Triangles: 12",
		"LOD #1 (2 in total; shown from 0 to 20)",
		"Skin: red (1/2)",
		"Camera: none",
	} {
		if !strings.Contains(info, want) {
			t.Errorf("Information() = %q, missing %q", info, want)
		}
	}
}
