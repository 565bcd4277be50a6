package math

import "github.com/chewxy/math32"

// Pi as float32.
const Pi = math32.Pi

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp moves a toward b by fraction t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float32) float32 {
	return rad * 180 / Pi
}

// Sin, Cos and Tan wrap math32 so callers keep a single math import.
func Sin(x float32) float32 { return math32.Sin(x) }

func Cos(x float32) float32 { return math32.Cos(x) }

func Tan(x float32) float32 { return math32.Tan(x) }

// Abs returns |x|.
func Abs(x float32) float32 { return math32.Abs(x) }
