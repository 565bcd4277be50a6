package lighting

import (
	"testing"

	"github.com/Faultbox/showroom/pkg/math"
)

func near(a, b math.Vec3) bool {
	d := a.Sub(b)
	return math.Abs(d.X) < 1e-5 && math.Abs(d.Y) < 1e-5 && math.Abs(d.Z) < 1e-5
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name               string
		azimuth, elevation float32
		want               math.Vec3
	}{
		{"horizon front", 0, 0, math.Vec3{Z: 1}},
		{"horizon right", 90, 0, math.Vec3{X: 1}},
		{"zenith", 45, 90, math.Vec3{Y: 1}},
		{"clamped", 0, 120, math.Vec3{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SunDirection(tt.azimuth, tt.elevation); !near(got, tt.want) {
				t.Errorf("SunDirection(%v, %v) = %v, want %v", tt.azimuth, tt.elevation, got, tt.want)
			}
		})
	}
}

func TestParseSun(t *testing.T) {
	got, err := ParseSun("90, 0")
	if err != nil {
		t.Fatal(err)
	}
	if !near(got, math.Vec3{X: 1}) {
		t.Errorf("ParseSun = %v", got)
	}
	for _, bad := range []string{"", "90", "a,1", "1,b"} {
		if _, err := ParseSun(bad); err == nil {
			t.Errorf("ParseSun(%q) succeeded", bad)
		}
	}
}
