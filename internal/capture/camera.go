// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// FrameSource yields frames one at a time until the stream ends.
type FrameSource interface {
	// NextFrame returns the next frame, or false once no more frames can be
	// read. The caller closes the returned Mat.
	NextFrame() (*gocv.Mat, bool)

	// Size returns the frame size the source produces.
	Size() image.Point

	// Close releases the underlying device.
	Close() error
}

// Options configures a Camera.
type Options struct {
	Device int
	Width  int
	Height int
	// FPS is requested from the device when positive.
	FPS int
	// Mirror flips every frame horizontally.
	Mirror bool
}

// DefaultOptions returns the settings for device 0 at 640x480, mirrored.
func DefaultOptions() Options {
	return Options{
		Device: 0,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Mirror: true,
	}
}

// Camera manages video capture from a camera device using GoCV.
type Camera struct {
	opts    Options
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	size    image.Point
}

// NewCamera creates a Camera. It is not opened until Open is called.
func NewCamera(opts Options) *Camera {
	return &Camera{
		opts: opts,
		size: image.Pt(opts.Width, opts.Height),
	}
}

// Open opens the device, requests the configured resolution and reads back
// the size the device actually delivers.
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.opts.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.opts.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open camera %d: %w", c.opts.Device, ErrCameraNotOpen)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	if c.opts.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))
	}

	w := int(capture.Get(gocv.VideoCaptureFrameWidth))
	h := int(capture.Get(gocv.VideoCaptureFrameHeight))
	if w > 0 && h > 0 {
		c.size = image.Pt(w, h)
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera, mirrored if configured.
// The caller is responsible for closing the returned Mat.
func (c *Camera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	if !c.opts.Mirror {
		return &mat, nil
	}

	mirrored := gocv.NewMat()
	gocv.Flip(mat, &mirrored, 1)
	mat.Close()

	return &mirrored, nil
}

// NextFrame implements FrameSource. Any read failure ends the stream.
func (c *Camera) NextFrame() (*gocv.Mat, bool) {
	mat, err := c.ReadFrame()
	if err != nil {
		return nil, false
	}
	return mat, true
}

// Size returns the frame size read back from the device on Open, or the
// requested size before that.
func (c *Camera) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

// IsOpen returns true if the camera is currently open and running.
func (c *Camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
