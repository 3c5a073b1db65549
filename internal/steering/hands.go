package steering

import "github.com/ayusman/handwheel/internal/detector"

// AnchorLandmark is the landmark used as the authoritative hand position
// for the steering vector (base of the index finger).
const AnchorLandmark = detector.IndexMCP

// Hands holds the steering anchors of a resolved hand pair.
type Hands struct {
	Left  Point
	Right Point
}

// Angle returns the unclamped steering angle of the pair.
func (h Hands) Angle() float64 {
	return ComputeAngle(h.Left, h.Right)
}

// ResolveHands picks left and right from the detected hands and scales their
// anchors to a width×height frame. It reports false unless exactly two hands
// were detected. The hand whose wrist has the smaller normalized x is the
// left one, which matches a mirrored frame.
func ResolveHands(hands []detector.HandLandmarks, width, height int) (Hands, bool) {
	if len(hands) != 2 {
		return Hands{}, false
	}

	left, right := hands[0], hands[1]
	if left.Points[detector.Wrist].X >= right.Points[detector.Wrist].X {
		left, right = right, left
	}

	return Hands{
		Left:  anchor(left, width, height),
		Right: anchor(right, width, height),
	}, true
}

func anchor(h detector.HandLandmarks, width, height int) Point {
	p := h.Points[AnchorLandmark]
	return Point{X: p.X * float64(width), Y: p.Y * float64(height)}
}
