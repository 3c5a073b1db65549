package steering

import "math"

// State is the discrete control state of the wheel.
type State int

const (
	NoHands State = iota
	Straight
	TurningLeft
	TurningRight
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NoHands:
		return "no_hands"
	case Straight:
		return "straight"
	case TurningLeft:
		return "turning_left"
	case TurningRight:
		return "turning_right"
	default:
		return "unknown"
	}
}

// Key identifies one of the virtual control keys.
type Key int

const (
	KeyForward Key = iota
	KeyLeft
	KeyRight
	numKeys
)

// String returns the key's role name.
func (k Key) String() string {
	switch k {
	case KeyForward:
		return "forward"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	default:
		return "unknown"
	}
}

// KeySink receives key press and release events. keys.Sink satisfies it.
type KeySink interface {
	Press(key string)
	Release(key string)
}

// KeyMap binds control keys to the key names understood by a KeySink.
type KeyMap struct {
	Forward string
	Left    string
	Right   string
}

// DefaultKeyMap drives with W, steers with A and D.
func DefaultKeyMap() KeyMap {
	return KeyMap{Forward: "w", Left: "a", Right: "d"}
}

func (m KeyMap) name(k Key) string {
	switch k {
	case KeyForward:
		return m.Forward
	case KeyLeft:
		return m.Left
	default:
		return m.Right
	}
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// Threshold is the dead-zone half width in degrees. Turning requires the
	// clamped angle to exceed it strictly.
	Threshold float64
	// MaxAngle bounds the reported steering angle.
	MaxAngle float64
	Keys     KeyMap
}

// DefaultControllerOptions returns the stock thresholds and key map.
func DefaultControllerOptions() ControllerOptions {
	return ControllerOptions{
		Threshold: DefaultThreshold,
		MaxAngle:  DefaultMaxAngle,
		Keys:      DefaultKeyMap(),
	}
}

// Decision is the outcome of one Update.
type Decision struct {
	State State
	// Angle is the clamped angle, or 0 when hands are not visible or the
	// measurement was degenerate.
	Angle float64
	// Changed reports whether State differs from the previous frame.
	Changed bool
}

// Controller maps the per-frame steering angle to held keys. It owns the
// process-wide key-hold state: keys start released, change only on
// transitions, and ReleaseAll returns them to released.
type Controller struct {
	sink  KeySink
	opts  ControllerOptions
	held  [numKeys]bool
	state State
	angle float64
}

// NewController creates a Controller that sends key events to sink.
func NewController(sink KeySink, opts ControllerOptions) *Controller {
	return &Controller{
		sink:  sink,
		opts:  opts,
		state: NoHands,
	}
}

// Update applies one frame's input. rawAngle is the unclamped output of
// ComputeAngle and is ignored when handsVisible is false.
func (c *Controller) Update(handsVisible bool, rawAngle float64) Decision {
	prev := c.state

	if !handsVisible {
		c.release(KeyForward)
		c.release(KeyLeft)
		c.release(KeyRight)
		c.state = NoHands
		c.angle = 0
		return Decision{State: c.state, Angle: c.angle, Changed: c.state != prev}
	}

	angle := 0.0
	if !math.IsNaN(rawAngle) && !math.IsInf(rawAngle, 0) {
		angle = Clamp(rawAngle, c.opts.MaxAngle)
	}

	c.press(KeyForward)

	switch {
	case angle > c.opts.Threshold:
		c.release(KeyRight)
		c.press(KeyLeft)
		c.state = TurningLeft
	case angle < -c.opts.Threshold:
		c.release(KeyLeft)
		c.press(KeyRight)
		c.state = TurningRight
	default:
		c.release(KeyLeft)
		c.release(KeyRight)
		c.state = Straight
	}

	c.angle = angle
	return Decision{State: c.state, Angle: c.angle, Changed: c.state != prev}
}

// ReleaseAll releases every held key. It is safe to call more than once.
func (c *Controller) ReleaseAll() {
	for k := Key(0); k < numKeys; k++ {
		c.release(k)
	}
}

// State returns the current control state.
func (c *Controller) State() State {
	return c.state
}

// Angle returns the last reported angle.
func (c *Controller) Angle() float64 {
	return c.angle
}

// Held returns the currently held keys in forward, left, right order.
func (c *Controller) Held() []Key {
	var held []Key
	for k := Key(0); k < numKeys; k++ {
		if c.held[k] {
			held = append(held, k)
		}
	}
	return held
}

// IsHeld reports whether k is currently held.
func (c *Controller) IsHeld(k Key) bool {
	return c.held[k]
}

func (c *Controller) press(k Key) {
	if c.held[k] {
		return
	}
	c.held[k] = true
	c.sink.Press(c.opts.Keys.name(k))
}

func (c *Controller) release(k Key) {
	if !c.held[k] {
		return
	}
	c.held[k] = false
	c.sink.Release(c.opts.Keys.name(k))
}
