package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/ayusman/handwheel/internal/app"
	"github.com/ayusman/handwheel/internal/capture"
	"github.com/ayusman/handwheel/internal/config"
	"github.com/ayusman/handwheel/internal/detector"
	"github.com/ayusman/handwheel/internal/display"
	"github.com/ayusman/handwheel/internal/journal"
	"github.com/ayusman/handwheel/internal/keys"
	"github.com/ayusman/handwheel/internal/logging"
	"github.com/ayusman/handwheel/internal/steering"
	"github.com/ayusman/handwheel/internal/wheel"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "handwheel: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("handwheel", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	dryRun := fs.Bool("dry-run", false, "log key events instead of injecting them")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err != nil {
		return err
	}
	logger.Info().Str("config", config.ConfigFile()).Msg("Handwheel - virtual steering wheel")

	var opened closers
	defer opened.closeAll()

	camera := capture.NewCamera(cfg.CameraOptions())
	if err := camera.Open(); err != nil {
		return fmt.Errorf("could not open the camera: %w", err)
	}
	opened.add(camera.Close)
	size := camera.Size()
	logger.Info().Int("device", cfg.Camera.Device).Int("width", size.X).Int("height", size.Y).Msg("camera opened")

	tracker, err := detector.NewMediaPipeDetector(cfg.TrackerConfig())
	if err != nil {
		return fmt.Errorf("hand detector: %w", err)
	}
	opened.add(tracker.Close)
	if err := tracker.Start(); err != nil {
		return fmt.Errorf("hand detector: %w", err)
	}
	logger.Info().Int("maxHands", cfg.Detector.MaxNumHands).Msg("using MediaPipe hand detection")

	sink, err := keySink(cfg, *dryRun, logger)
	if err != nil {
		return err
	}

	window := display.NewWindow(cfg.DisplayOptions())
	opened.add(window.Close)

	drive := openJournal(cfg, logger)
	if drive != nil {
		opened.add(drive.Close)
	}

	a, err := app.New(app.Config{
		Source:        camera,
		Detector:      tracker,
		Controller:    steering.NewController(sink, cfg.ControllerOptions()),
		Renderer:      wheel.NewRenderer(cfg.Wheel.Radius),
		Display:       window,
		Journal:       drive,
		DrawLandmarks: cfg.Display.DrawLandmarks,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	opened.release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}

func keySink(cfg *config.Config, dryRun bool, logger zerolog.Logger) (keys.Sink, error) {
	if dryRun {
		logger.Info().Msg("dry run: key events are logged, not injected")
		return &loggingSink{Recorder: keys.NewRecorder(), logger: logger}, nil
	}

	sink, err := keys.New(cfg.KeySinkConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("key backend: %w", err)
	}
	logger.Info().Str("backend", cfg.Keys.Backend).Msg("key backend ready")
	return sink, nil
}

// loggingSink records key events and logs each one.
type loggingSink struct {
	*keys.Recorder
	logger zerolog.Logger
}

func (s *loggingSink) Press(key string) {
	s.Recorder.Press(key)
	s.logger.Info().Str("key", key).Msg("key down")
}

func (s *loggingSink) Release(key string) {
	s.Recorder.Release(key)
	s.logger.Info().Str("key", key).Msg("key up")
}

// openJournal starts a journal session when enabled. Failures disable the
// journal rather than stopping the simulator.
func openJournal(cfg *config.Config, logger zerolog.Logger) app.Journal {
	if !cfg.Journal.Enabled {
		return nil
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("drive journal disabled")
		return nil
	}

	id, err := j.StartSession(journal.Settings{
		Radius:     cfg.Wheel.Radius,
		Threshold:  cfg.Steering.Threshold,
		MaxAngle:   cfg.Steering.MaxAngle,
		KeyBackend: cfg.Keys.Backend,
	})
	if err != nil {
		j.Close()
		logger.Warn().Err(err).Msg("drive journal disabled")
		return nil
	}

	logger.Info().Str("session", id).Str("path", j.Path()).Msg("drive journal started")
	return j
}

// closers holds the resources opened during startup. They are closed in
// reverse order unless released to the app, which closes them itself.
type closers []func() error

func (c *closers) add(close func() error) {
	*c = append(*c, close)
}

func (c *closers) release() {
	*c = nil
}

func (c *closers) closeAll() error {
	var errs []error
	for i := len(*c) - 1; i >= 0; i-- {
		if err := (*c)[i](); err != nil {
			errs = append(errs, err)
		}
	}
	*c = nil
	return errors.Join(errs...)
}
