// Package display shows annotated frames and reports the quit key.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// Default window settings.
const (
	DefaultTitle   = "Driving Simulator (Gestures)"
	DefaultWaitMs  = 20
	DefaultQuitKey = 'q'
)

// Sink presents frames to the user.
type Sink interface {
	// Show presents frame and reports whether the user asked to quit.
	Show(frame *gocv.Mat) (quit bool)

	// Close tears down the display.
	Close() error
}

// Options configures a Window.
type Options struct {
	Title   string
	WaitMs  int
	QuitKey rune
}

// DefaultOptions returns the stock window title, key poll and quit key.
func DefaultOptions() Options {
	return Options{
		Title:   DefaultTitle,
		WaitMs:  DefaultWaitMs,
		QuitKey: DefaultQuitKey,
	}
}

// Window is a Sink backed by an OpenCV highgui window. It must be created
// and used from the main thread.
type Window struct {
	opts   Options
	win    *gocv.Window
	closed sync.Once
}

// NewWindow opens a window titled opts.Title.
func NewWindow(opts Options) *Window {
	if opts.WaitMs <= 0 {
		opts.WaitMs = 1
	}
	return &Window{
		opts: opts,
		win:  gocv.NewWindow(opts.Title),
	}
}

// Show draws frame and polls the keyboard for opts.WaitMs milliseconds.
func (w *Window) Show(frame *gocv.Mat) bool {
	w.win.IMShow(*frame)
	return IsQuit(w.win.WaitKey(w.opts.WaitMs), w.opts.QuitKey)
}

// Close destroys the window. Later calls do nothing.
func (w *Window) Close() error {
	var err error
	w.closed.Do(func() {
		err = w.win.Close()
	})
	return err
}

// IsQuit reports whether a WaitKey result is the quit key. Only the low byte
// is compared; negative values mean no key was pressed.
func IsQuit(key int, quit rune) bool {
	if key < 0 {
		return false
	}
	return rune(key&0xFF) == quit
}
