// Package app runs the virtual steering wheel frame loop.
package app

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/handwheel/internal/capture"
	"github.com/ayusman/handwheel/internal/detector"
	"github.com/ayusman/handwheel/internal/display"
	"github.com/ayusman/handwheel/internal/logging"
	"github.com/ayusman/handwheel/internal/steering"
	"github.com/ayusman/handwheel/internal/wheel"
)

// AnchorHeight places the wheel centre at this fraction of the frame height.
const AnchorHeight = 0.75

// Journal receives control-state transitions. *journal.Journal implements it.
type Journal interface {
	RecordTransition(frame int64, state string, angle float64) error
	EndSession(frames int64) error
	Close() error
}

// Config holds the collaborators of an App. Journal is optional.
type Config struct {
	Source        capture.FrameSource
	Detector      detector.Detector
	Controller    *steering.Controller
	Renderer      *wheel.Renderer
	Display       display.Sink
	Journal       Journal
	DrawLandmarks bool
	Logger        zerolog.Logger
}

// App drives one frame at a time through detection, control and rendering.
type App struct {
	source        capture.FrameSource
	detector      detector.Detector
	controller    *steering.Controller
	renderer      *wheel.Renderer
	display       display.Sink
	journal       Journal
	drawLandmarks bool
	logger        zerolog.Logger

	anchor    image.Point
	frames    int64
	closeOnce sync.Once
	closeErr  error
}

// New creates an App. The frame source must already be open; its size fixes
// the wheel anchor.
func New(config Config) (*App, error) {
	switch {
	case config.Source == nil:
		return nil, errors.New("app: frame source is required")
	case config.Detector == nil:
		return nil, errors.New("app: detector is required")
	case config.Controller == nil:
		return nil, errors.New("app: controller is required")
	case config.Renderer == nil:
		return nil, errors.New("app: renderer is required")
	case config.Display == nil:
		return nil, errors.New("app: display is required")
	}

	size := config.Source.Size()
	a := &App{
		source:        config.Source,
		detector:      config.Detector,
		controller:    config.Controller,
		renderer:      config.Renderer,
		display:       config.Display,
		journal:       config.Journal,
		drawLandmarks: config.DrawLandmarks,
		logger:        logging.Component(config.Logger, "app"),
		anchor:        Anchor(size),
	}

	a.logger.Info().
		Int("width", size.X).
		Int("height", size.Y).
		Int("radius", config.Renderer.Radius()).
		Msg("frame loop ready")

	return a, nil
}

// Anchor returns the wheel centre for a frame of the given size.
func Anchor(size image.Point) image.Point {
	return image.Pt(size.X/2, int(float64(size.Y)*AnchorHeight))
}

// Frames returns the number of frames processed by Step.
func (a *App) Frames() int64 {
	return a.frames
}

// Controller returns the steering controller.
func (a *App) Controller() *steering.Controller {
	return a.controller
}

// Close releases every held key and closes the frame source, detector,
// display and journal. Only the first call has any effect.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.controller.ReleaseAll()

		var errs []error
		if err := a.source.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing camera")
			errs = append(errs, fmt.Errorf("close camera: %w", err))
		}
		if err := a.detector.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing detector")
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
		if err := a.display.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing display")
			errs = append(errs, fmt.Errorf("close display: %w", err))
		}
		if a.journal != nil {
			if err := a.journal.EndSession(a.frames); err != nil {
				a.logger.Warn().Err(err).Msg("failed to end journal session")
			}
			if err := a.journal.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("failed to close journal")
			}
		}

		a.closeErr = errors.Join(errs...)
		a.logger.Info().Int64("frames", a.frames).Msg("Simulator closed.")
	})
	return a.closeErr
}
