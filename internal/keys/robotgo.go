package keys

import (
	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog"

	"github.com/ayusman/handwheel/internal/logging"
)

// RobotgoSink injects OS-level key events through robotgo.
type RobotgoSink struct {
	logger zerolog.Logger
}

// NewRobotgoSink creates a RobotgoSink.
func NewRobotgoSink(logger zerolog.Logger) *RobotgoSink {
	return &RobotgoSink{logger: logging.Component(logger, "keys.robotgo")}
}

// Press holds key down.
func (s *RobotgoSink) Press(key string) {
	if err := robotgo.KeyToggle(key, "down"); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("key down failed")
	}
}

// Release lets key up.
func (s *RobotgoSink) Release(key string) {
	if err := robotgo.KeyToggle(key, "up"); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("key up failed")
	}
}
