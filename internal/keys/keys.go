// Package keys injects simulated keyboard events.
package keys

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Sink receives key press and release events. Implementations are
// fire-and-forget: failures are reported through their own logger and never
// returned to the caller.
type Sink interface {
	Press(key string)
	Release(key string)
}

// Backend names accepted by New.
const (
	BackendRobotgo = "robotgo"
	BackendPlugin  = "plugin"
)

// Config selects and configures a Sink backend.
type Config struct {
	Backend string
	// PluginDir and Plugin locate the keyboard plugin for BackendPlugin.
	PluginDir string
	Plugin    string
	TimeoutMs int
}

// New creates the Sink named by cfg.Backend.
func New(cfg Config, logger zerolog.Logger) (Sink, error) {
	switch cfg.Backend {
	case BackendRobotgo, "":
		return NewRobotgoSink(logger), nil
	case BackendPlugin:
		return NewPluginSink(cfg.PluginDir, cfg.Plugin, cfg.TimeoutMs, logger)
	default:
		return nil, fmt.Errorf("unknown key backend %q", cfg.Backend)
	}
}

// Event is a recorded key event.
type Event struct {
	Key     string
	Pressed bool
}

// String renders the event as "+key" or "-key".
func (e Event) String() string {
	if e.Pressed {
		return "+" + e.Key
	}
	return "-" + e.Key
}

// Recorder is a Sink that records events in memory for tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	down   map[string]bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{down: make(map[string]bool)}
}

// Press records a key press.
func (r *Recorder) Press(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Key: key, Pressed: true})
	r.down[key] = true
}

// Release records a key release.
func (r *Recorder) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Key: key, Pressed: false})
	delete(r.down, key)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// IsDown reports whether key was pressed and not released since.
func (r *Recorder) IsDown(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down[key]
}

// Reset clears the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.down = make(map[string]bool)
}
