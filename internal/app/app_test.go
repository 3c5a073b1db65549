package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handwheel/internal/capture"
	"github.com/ayusman/handwheel/internal/detector"
	"github.com/ayusman/handwheel/internal/display"
	"github.com/ayusman/handwheel/internal/keys"
	"github.com/ayusman/handwheel/internal/steering"
	"github.com/ayusman/handwheel/internal/wheel"
)

const (
	frameW = 640
	frameH = 480
)

type memJournal struct {
	states []string
	angles []float64
	ended  int64
	closes int
}

func (j *memJournal) RecordTransition(frame int64, state string, angle float64) error {
	j.states = append(j.states, state)
	j.angles = append(j.angles, angle)
	return nil
}

func (j *memJournal) EndSession(frames int64) error {
	j.ended = frames
	return nil
}

func (j *memJournal) Close() error {
	j.closes++
	return nil
}

// panicDetector returns hands once, then panics.
type panicDetector struct {
	*detector.MockDetector
	calls int
}

func (d *panicDetector) Detect(frame *gocv.Mat) ([]detector.HandLandmarks, error) {
	d.calls++
	if d.calls > 1 {
		panic("tracker crashed")
	}
	return d.MockDetector.Detect(frame)
}

type fixture struct {
	app     *App
	camera  *capture.MockCamera
	det     *detector.MockDetector
	keys    *keys.Recorder
	display *display.MockDisplay
	journal *memJournal
	logs    *bytes.Buffer
	frames  []*gocv.Mat
}

func newFixture(t *testing.T, n, quitAfter int) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := &fixture{
		det:     detector.NewMockDetector(),
		keys:    keys.NewRecorder(),
		display: display.NewMockDisplay(quitAfter),
		journal: &memJournal{},
		logs:    &bytes.Buffer{},
	}
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), frameH, frameW, gocv.MatTypeCV8UC3)
		f.frames = append(f.frames, &m)
	}
	t.Cleanup(func() {
		for _, m := range f.frames {
			m.Close()
		}
	})

	f.camera = capture.NewMockCamera(f.frames, false)
	require.NoError(t, f.camera.Open())

	a, err := New(Config{
		Source:        f.camera,
		Detector:      f.det,
		Controller:    steering.NewController(f.keys, steering.DefaultControllerOptions()),
		Renderer:      wheel.NewRenderer(wheel.DefaultRadius),
		Display:       f.display,
		Journal:       f.journal,
		DrawLandmarks: true,
		Logger:        zerolog.New(f.logs),
	})
	require.NoError(t, err)
	f.app = a

	return f
}

func (f *fixture) step(t *testing.T) steering.Decision {
	t.Helper()
	frame, ok := f.camera.NextFrame()
	require.True(t, ok)
	defer frame.Close()

	d, err := f.app.Step(frame)
	require.NoError(t, err)
	return d
}

func eventStrings(events []keys.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.String()
	}
	return out
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, image.Pt(320, 360), Anchor(image.Pt(640, 480)))
	assert.Equal(t, image.Pt(640, 540), Anchor(image.Pt(1280, 720)))
	assert.Equal(t, image.Pt(50, 75), Anchor(image.Pt(101, 101)))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Source: capture.NewMockCamera(nil, false)})
	assert.Error(t, err)
}

func TestStep_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		hands     []detector.HandLandmarks
		err       error
		wantState steering.State
		wantAngle float64
		wantKeys  []string
	}{
		{
			name:      "level hands go straight",
			hands:     detector.SteeringPair(200, 300, 440, 300, frameW, frameH),
			wantState: steering.Straight,
			wantAngle: 0,
			wantKeys:  []string{"+w"},
		},
		{
			name:      "right hand higher turns left at the limit",
			hands:     detector.SteeringPair(200, 300, 400, 200, frameW, frameH),
			wantState: steering.TurningLeft,
			wantAngle: 20,
			wantKeys:  []string{"+w", "+a"},
		},
		{
			name:      "left hand higher turns right",
			hands:     detector.SteeringPair(200, 200, 400, 300, frameW, frameH),
			wantState: steering.TurningRight,
			wantAngle: -20,
			wantKeys:  []string{"+w", "+d"},
		},
		{
			name:      "one hand only",
			hands:     detector.SteeringPair(200, 300, 440, 300, frameW, frameH)[:1],
			wantState: steering.NoHands,
			wantAngle: 0,
			wantKeys:  []string{},
		},
		{
			name:      "detector error counts as no hands",
			err:       errors.New("tracker unavailable"),
			wantState: steering.NoHands,
			wantAngle: 0,
			wantKeys:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1, 0)
			f.det.SetHands(tt.hands)
			f.det.SetError(tt.err)

			d := f.step(t)

			assert.Equal(t, tt.wantState, d.State)
			assert.InDelta(t, tt.wantAngle, d.Angle, 1e-9)
			assert.Equal(t, tt.wantKeys, eventStrings(f.keys.Events()))
			assert.Equal(t, int64(1), f.app.Frames())
		})
	}
}

func TestStep_CompositesWheel(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.det.SetHands(detector.SteeringPair(200, 300, 440, 300, frameW, frameH))

	frame, ok := f.camera.NextFrame()
	require.True(t, ok)
	defer frame.Close()

	_, err := f.app.Step(frame)
	require.NoError(t, err)

	pix, err := frame.DataPtrUint8()
	require.NoError(t, err)
	at := func(x, y int) []uint8 {
		i := (y*frameW + x) * 3
		return pix[i : i+3]
	}

	// Hub centre on the anchor, transparent wheel corner untouched.
	assert.Equal(t, []uint8{100, 100, 100}, at(320, 360))
	assert.Equal(t, []uint8{10, 20, 30}, at(201, 241))
}

func TestStep_RecordsTransitions(t *testing.T) {
	f := newFixture(t, 4, 0)

	f.det.SetSequence([][]detector.HandLandmarks{
		detector.SteeringPair(200, 300, 440, 300, frameW, frameH),
		detector.SteeringPair(200, 300, 440, 300, frameW, frameH),
		detector.SteeringPair(200, 300, 400, 200, frameW, frameH),
		nil,
	})

	for i := 0; i < 4; i++ {
		f.step(t)
	}

	assert.Equal(t, []string{"straight", "turning_left", "no_hands"}, f.journal.states)
	assert.Equal(t, []string{"+w", "+a", "-w", "-a"}, eventStrings(f.keys.Events()))
}

func TestRun_EndOfStream(t *testing.T) {
	f := newFixture(t, 3, 0)
	f.det.SetHands(detector.SteeringPair(200, 300, 400, 200, frameW, frameH))

	err := f.app.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, f.display.Shown())
	assert.Equal(t, int64(3), f.app.Frames())

	// Cleanup released everything and closed each collaborator once.
	for _, k := range []string{"w", "a", "d"} {
		assert.False(t, f.keys.IsDown(k), "key %s still held", k)
	}
	assert.Empty(t, f.app.Controller().Held())
	assert.Equal(t, 1, f.camera.Closes())
	assert.Equal(t, 1, f.det.Closes())
	assert.Equal(t, 1, f.display.Closes())
	assert.Equal(t, 1, f.journal.closes)
	assert.Equal(t, int64(3), f.journal.ended)

	require.NoError(t, f.app.Close())
	assert.Equal(t, 1, f.camera.Closes(), "second Close must not close again")
}

func TestRun_Quit(t *testing.T) {
	f := newFixture(t, 5, 2)
	f.det.SetHands(detector.SteeringPair(200, 300, 440, 300, frameW, frameH))

	require.NoError(t, f.app.Run(context.Background()))

	assert.Equal(t, 2, f.display.Shown())
	assert.False(t, f.keys.IsDown("w"))
	assert.Equal(t, []string{"+w", "-w"}, eventStrings(f.keys.Events()))
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t, 3, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.app.Run(ctx))

	assert.Equal(t, 0, f.display.Shown())
	assert.Equal(t, 1, f.camera.Closes())
}

func TestRun_PanicStillCleansUp(t *testing.T) {
	f := newFixture(t, 3, 0)
	pd := &panicDetector{MockDetector: f.det}
	f.det.SetHands(detector.SteeringPair(200, 300, 440, 300, frameW, frameH))
	f.app.detector = pd

	assert.Panics(t, func() {
		f.app.Run(context.Background())
	})

	assert.False(t, f.keys.IsDown("w"), "forward key must be released after a panic")
	assert.Equal(t, 1, f.camera.Closes())
	assert.Equal(t, 1, f.det.Closes())
	assert.Equal(t, 1, f.display.Closes())
}

func TestApp_LogsAsAppComponent(t *testing.T) {
	f := newFixture(t, 1, 0)

	require.NoError(t, f.app.Run(context.Background()))

	out := f.logs.String()
	assert.Contains(t, out, `"component":"app"`)
	assert.Contains(t, out, `"message":"Simulator closed."`)
}
