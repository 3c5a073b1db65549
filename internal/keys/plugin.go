package keys

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ayusman/handwheel/internal/logging"
	"github.com/ayusman/handwheel/internal/plugin"
)

// PluginSink delivers key events to a keyboard plugin executable, one
// process per event. Events are sent synchronously so their order is kept.
type PluginSink struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
	logger   zerolog.Logger
}

// NewPluginSink discovers plugins in dir and binds the one called name.
// The plugin must accept keydown and keyup requests.
func NewPluginSink(dir, name string, timeoutMs int, logger zerolog.Logger) (*PluginSink, error) {
	mgr := plugin.NewManager(dir)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins in %s: %w", dir, err)
	}

	p, err := mgr.Get(name)
	if err != nil {
		return nil, fmt.Errorf("key plugin %q: %w", name, err)
	}

	for _, action := range []string{plugin.ActionKeyDown, plugin.ActionKeyUp} {
		if !p.Supports(action) {
			return nil, fmt.Errorf("key plugin %q does not support %s", name, action)
		}
	}

	if timeoutMs <= 0 {
		timeoutMs = 2000
	}

	return &PluginSink{
		plugin:   p,
		executor: plugin.NewExecutor(timeoutMs),
		logger:   logging.Component(logger, "keys.plugin").With().Str("plugin", name).Logger(),
	}, nil
}

// Press sends a keydown request.
func (s *PluginSink) Press(key string) {
	s.send(plugin.ActionKeyDown, key)
}

// Release sends a keyup request.
func (s *PluginSink) Release(key string) {
	s.send(plugin.ActionKeyUp, key)
}

func (s *PluginSink) send(action, key string) {
	resp, err := s.executor.Execute(context.Background(), s.plugin, &plugin.Request{
		Action: action,
		Key:    key,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("action", action).Str("key", key).Msg("key plugin failed")
		return
	}
	if !resp.Success {
		s.logger.Warn().Str("action", action).Str("key", key).Str("error", resp.Error).Msg("key plugin rejected event")
	}
}
