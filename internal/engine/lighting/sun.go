// Package lighting converts light placements into directions.
package lighting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/showroom/pkg/math"
)

// SunDirection converts an azimuth around Y and an elevation above the
// horizon, both in degrees, to a normalized vector pointing towards the light.
func SunDirection(azimuth, elevation float32) math.Vec3 {
	az := math.DegToRad(azimuth)
	el := math.DegToRad(math.Clamp(elevation, -90, 90))

	// Spherical to Cartesian, azimuth 0 looks down +Z
	return math.Vec3{
		X: math.Cos(el) * math.Sin(az),
		Y: math.Sin(el),
		Z: math.Cos(el) * math.Cos(az),
	}
}

// ParseSun reads "azimuth,elevation" in degrees.
func ParseSun(s string) (math.Vec3, error) {
	az, el, ok := strings.Cut(s, ",")
	if !ok {
		return math.Vec3{}, fmt.Errorf("want azimuth,elevation, got %q", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(az), 32)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("azimuth: %w", err)
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(el), 32)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("elevation: %w", err)
	}
	return SunDirection(float32(a), float32(e)), nil
}
