// Package overlay blends the wheel onto camera frames and draws the status
// annotations.
package overlay

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrUnsupportedFrame is returned for frames that are not 8-bit BGR or BGRA.
var ErrUnsupportedFrame = errors.New("unsupported frame type")

// Placement returns where a wheel of size wheel lands in a frame of size
// frame when centred on anchor. The origin is clamped to the frame's top
// left without re-centring and the far edges are clipped, so the wheel is
// always read from its own (0,0). An empty rectangle means nothing to draw.
func Placement(frame, wheel, anchor image.Point) image.Rectangle {
	x0 := max(0, anchor.X-wheel.X/2)
	y0 := max(0, anchor.Y-wheel.Y/2)
	x1 := min(x0+wheel.X, frame.X)
	y1 := min(y0+wheel.Y, frame.Y)

	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}
	}
	return image.Rect(x0, y0, x1, y1)
}

// Composite alpha-blends wheel onto dst in place, centred on anchor.
// dst must be an 8-bit Mat with 3 (BGR) or 4 (BGRA) channels.
func Composite(dst *gocv.Mat, wheel *image.RGBA, anchor image.Point) error {
	channels, err := frameChannels(dst)
	if err != nil {
		return err
	}

	frame := image.Pt(dst.Cols(), dst.Rows())
	rect := Placement(frame, wheel.Bounds().Size(), anchor)
	if rect.Empty() {
		return nil
	}

	pix, err := dst.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("access frame data: %w", err)
	}

	Blend(pix, frame.X*channels, channels, rect, wheel)
	return nil
}

func frameChannels(m *gocv.Mat) (int, error) {
	switch m.Type() {
	case gocv.MatTypeCV8UC3:
		return 3, nil
	case gocv.MatTypeCV8UC4:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFrame, m.Type())
	}
}

// Blend composites wheel over rect of a BGR(A) pixel buffer with the given
// row stride and channel count. Each colour channel becomes
// alpha×wheel + (1−alpha)×frame; a fourth frame channel is left untouched.
// Pixels are read from the wheel starting at its own origin.
func Blend(pix []uint8, stride, channels int, rect image.Rectangle, wheel *image.RGBA) {
	origin := wheel.Bounds().Min

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		src := wheel.Pix[wheel.PixOffset(origin.X, origin.Y+y-rect.Min.Y):]
		row := pix[y*stride+rect.Min.X*channels:]

		for x := 0; x < rect.Dx(); x++ {
			s := src[x*4 : x*4+4]
			a := uint32(s[3])
			if a == 0 {
				continue
			}

			d := row[x*channels : x*channels+3]
			// The wheel is premultiplied: s already carries alpha×colour.
			inv := 255 - a
			d[0] = uint8((uint32(s[2])*255 + inv*uint32(d[0]) + 127) / 255)
			d[1] = uint8((uint32(s[1])*255 + inv*uint32(d[1]) + 127) / 255)
			d[2] = uint8((uint32(s[0])*255 + inv*uint32(d[2]) + 127) / 255)
		}
	}
}
