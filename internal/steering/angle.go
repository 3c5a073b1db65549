// Package steering turns two tracked hands into a steering angle and drives
// the held-key state of the virtual wheel.
package steering

import "math"

// Default steering limits, in degrees.
const (
	DefaultThreshold = 15.0
	DefaultMaxAngle  = 20.0
)

// Point is a position in frame pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// ComputeAngle returns the steering angle in degrees for the vector running
// from the left anchor to the right anchor. A left hand lower than the right
// hand (on screen) yields a positive angle, which means "turn left".
// The result is not clamped.
func ComputeAngle(left, right Point) float64 {
	rad := math.Atan2(right.Y-left.Y, right.X-left.X)
	return -rad * 180 / math.Pi
}

// Clamp bounds angle to [-maxAngle, maxAngle]. NaN maps to 0 so a degenerate
// measurement can never reach key state.
func Clamp(angle, maxAngle float64) float64 {
	if math.IsNaN(angle) {
		return 0
	}
	return math.Max(-maxAngle, math.Min(angle, maxAngle))
}
