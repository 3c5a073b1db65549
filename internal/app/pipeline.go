package app

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/handwheel/internal/overlay"
	"github.com/ayusman/handwheel/internal/steering"
)

// Run loops acquire, Step, show until the frame source ends, the display
// reports quit or ctx is cancelled. Cleanup runs on every exit, including a
// panic in any stage.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()

	a.logger.Info().Msg("frame loop started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("frame loop cancelled")
			return nil
		default:
		}

		frame, ok := a.source.NextFrame()
		if !ok {
			a.logger.Warn().Msg("could not read frame from camera, end of stream")
			return nil
		}

		if _, err := a.Step(frame); err != nil {
			frame.Close()
			return err
		}

		quit := a.display.Show(frame)
		frame.Close()

		if quit {
			a.logger.Info().Msg("quit requested")
			return nil
		}
	}
}

// Step processes one acquired frame in place: detect hands, resolve the
// pair, update the controller, annotate, and composite the rotated wheel.
// A detector error counts as no hands for this frame.
func (a *App) Step(frame *gocv.Mat) (steering.Decision, error) {
	a.frames++
	width, height := frame.Cols(), frame.Rows()

	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn().Err(err).Int64("frame", a.frames).Msg("hand detection failed")
		hands = nil
	}

	var decision steering.Decision
	if pair, ok := steering.ResolveHands(hands, width, height); ok {
		if a.drawLandmarks {
			overlay.DrawLandmarks(frame, hands)
		}
		overlay.DrawHands(frame, pair)
		decision = a.controller.Update(true, pair.Angle())
	} else {
		decision = a.controller.Update(false, 0)
	}

	overlay.DrawStatus(frame, decision.State)

	if decision.Changed {
		a.recordTransition(decision)
	}

	img := a.renderer.Render(decision.Angle)
	if err := overlay.Composite(frame, img, a.anchorFor(width, height)); err != nil {
		return decision, fmt.Errorf("composite wheel: %w", err)
	}

	return decision, nil
}

func (a *App) anchorFor(width, height int) image.Point {
	if width == a.source.Size().X && height == a.source.Size().Y {
		return a.anchor
	}
	return Anchor(image.Pt(width, height))
}

func (a *App) recordTransition(d steering.Decision) {
	a.logger.Debug().
		Int64("frame", a.frames).
		Stringer("state", d.State).
		Float64("angle", d.Angle).
		Msg("control state changed")

	if a.journal == nil {
		return
	}
	if err := a.journal.RecordTransition(a.frames, d.State.String(), d.Angle); err != nil {
		a.logger.Warn().Err(err).Msg("failed to record transition")
	}
}
