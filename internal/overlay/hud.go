package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handwheel/internal/detector"
	"github.com/ayusman/handwheel/internal/steering"
)

// Colours are given as RGB; gocv writes them to BGR frames.
var (
	leftHandColor  = color.RGBA{0, 255, 0, 255}
	rightHandColor = color.RGBA{255, 0, 0, 255}
	axleColor      = color.RGBA{0, 255, 255, 255}
	turningColor   = color.RGBA{255, 255, 0, 255}
	straightColor  = color.RGBA{0, 255, 0, 255}
	warningColor   = color.RGBA{255, 0, 0, 255}
	boneColor      = color.RGBA{224, 224, 224, 255}
	jointColor     = color.RGBA{255, 0, 0, 255}
)

const (
	anchorRadius  = 8
	axleThickness = 2
	fontScale     = 0.7
	textThickness = 2
)

// Status is one line of HUD text.
type Status struct {
	Text  string
	Color color.RGBA
	Org   image.Point
}

// StatusFor returns the HUD line for a control state.
func StatusFor(state steering.State) Status {
	switch state {
	case steering.TurningLeft:
		return Status{Text: "Turning A (key A)", Color: turningColor, Org: image.Pt(50, 50)}
	case steering.TurningRight:
		return Status{Text: "Turning D (key D)", Color: turningColor, Org: image.Pt(50, 50)}
	case steering.Straight:
		return Status{Text: "Straight (keys released)", Color: straightColor, Org: image.Pt(50, 50)}
	default:
		return Status{Text: "Keep both hands visible!", Color: warningColor, Org: image.Pt(50, 150)}
	}
}

// DrawStatus writes the HUD line for state onto frame.
func DrawStatus(frame *gocv.Mat, state steering.State) {
	s := StatusFor(state)
	gocv.PutTextWithParams(frame, s.Text, s.Org, gocv.FontHersheySimplex, fontScale,
		s.Color, textThickness, gocv.LineAA, false)
}

// DrawHands marks both steering anchors and joins them.
func DrawHands(frame *gocv.Mat, hands steering.Hands) {
	l := pixel(hands.Left)
	r := pixel(hands.Right)

	gocv.Circle(frame, l, anchorRadius, leftHandColor, -1)
	gocv.Circle(frame, r, anchorRadius, rightHandColor, -1)
	gocv.Line(frame, l, r, axleColor, axleThickness)
}

// DrawLandmarks draws the skeleton of every detected hand.
func DrawLandmarks(frame *gocv.Mat, hands []detector.HandLandmarks) {
	w, h := frame.Cols(), frame.Rows()

	for i := range hands {
		hand := &hands[i]
		for _, c := range detector.HandConnections {
			x0, y0 := hand.Pixel(c[0], w, h)
			x1, y1 := hand.Pixel(c[1], w, h)
			gocv.Line(frame, image.Pt(x0, y0), image.Pt(x1, y1), boneColor, 2)
		}
		for j := 0; j < detector.NumLandmarks; j++ {
			x, y := hand.Pixel(j, w, h)
			gocv.Circle(frame, image.Pt(x, y), 2, jointColor, -1)
		}
	}
}

func pixel(p steering.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}
