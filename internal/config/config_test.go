package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray handwheel.* file is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	chdir(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Wheel.Radius)
	assert.Equal(t, 15.0, cfg.Steering.Threshold)
	assert.Equal(t, 20.0, cfg.Steering.MaxAngle)
	assert.Equal(t, 0, cfg.Camera.Device)
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.Equal(t, 480, cfg.Camera.Height)
	assert.True(t, cfg.Camera.Mirror)
	assert.Equal(t, 0.7, cfg.Detector.MinDetectionConfidence)
	assert.Equal(t, 0.7, cfg.Detector.MinTrackingConfidence)
	assert.Equal(t, 2, cfg.Detector.MaxNumHands)
	assert.Equal(t, "robotgo", cfg.Keys.Backend)
	assert.Equal(t, "w", cfg.Keys.Forward)
	assert.Equal(t, "a", cfg.Keys.Left)
	assert.Equal(t, "d", cfg.Keys.Right)
	assert.Equal(t, "keyboard", cfg.Keys.Plugin)
	assert.Equal(t, 2000, cfg.Keys.TimeoutMs)
	assert.Equal(t, "Driving Simulator (Gestures)", cfg.Display.Window)
	assert.Equal(t, 20, cfg.Display.WaitMs)
	assert.Equal(t, "q", cfg.Display.QuitKey)
	assert.True(t, cfg.Display.DrawLandmarks)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Empty(t, ConfigFile())
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := chdir(t)

	cfg := `
wheel:
  radius: 100
steering:
  threshold: 10
  maxAngle: 30
keys:
  backend: plugin
  left: j
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "handwheel.yaml"), []byte(cfg), 0644))

	got, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 100, got.Wheel.Radius)
	assert.Equal(t, 10.0, got.Steering.Threshold)
	assert.Equal(t, 30.0, got.Steering.MaxAngle)
	assert.Equal(t, "plugin", got.Keys.Backend)
	assert.Equal(t, "j", got.Keys.Left)
	assert.Equal(t, "d", got.Keys.Right)
	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, filepath.Join(dir, "handwheel.yaml"), ConfigFile())
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := chdir(t)

	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"camera": {"device": 2, "mirror": false}}`), 0644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path}))

	got, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Camera.Device)
	assert.False(t, got.Camera.Mirror)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	chdir(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", "/nonexistent/handwheel.yaml"}))

	_, err := Load(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_Precedence(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := chdir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "handwheel.yaml"),
		[]byte("wheel:\n  radius: 90\ncamera:\n  width: 1280\n  height: 720\n"), 0644))
	t.Setenv("HANDWHEEL_CAMERA_WIDTH", "800")
	t.Setenv("HANDWHEEL_STEERING_MAXANGLE", "25")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--radius", "120", "--journal", "--journal-path", "/tmp/j.db"}))

	got, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 120, got.Wheel.Radius, "flag beats file")
	assert.Equal(t, 800, got.Camera.Width, "env beats file")
	assert.Equal(t, 720, got.Camera.Height, "file beats default")
	assert.Equal(t, 25.0, got.Steering.MaxAngle, "env beats default")
	assert.Equal(t, 15.0, got.Steering.Threshold, "unset flag keeps default")
	assert.True(t, got.Journal.Enabled)
	assert.Equal(t, "/tmp/j.db", got.Journal.Path)
}

func TestLoad_ExpandsJournalHome(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := chdir(t)

	got, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".handwheel", "journal.db"), got.Journal.Path)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	chdir(t)
	t.Setenv("HANDWHEEL_WHEEL_RADIUS", "0")

	_, err := Load(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func validConfig() Config {
	return Config{
		Wheel:    WheelConfig{Radius: 80},
		Steering: SteeringConfig{Threshold: 15, MaxAngle: 20},
		Camera:   CameraConfig{Width: 640, Height: 480, Mirror: true},
		Detector: DetectorConfig{MinDetectionConfidence: 0.7, MinTrackingConfidence: 0.7, MaxNumHands: 2},
		Keys:     KeysConfig{Backend: "robotgo", Forward: "w", Left: "a", Right: "d"},
		Display:  DisplayConfig{Window: "w", WaitMs: 20, QuitKey: "q"},
		Log:      LogConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "threshold equals max angle", mutate: func(c *Config) { c.Steering.Threshold = 20 }},
		{name: "zero radius", mutate: func(c *Config) { c.Wheel.Radius = 0 }, wantErr: true},
		{name: "negative threshold", mutate: func(c *Config) { c.Steering.Threshold = -1 }, wantErr: true},
		{name: "max angle below threshold", mutate: func(c *Config) { c.Steering.MaxAngle = 10 }, wantErr: true},
		{name: "zero width", mutate: func(c *Config) { c.Camera.Width = 0 }, wantErr: true},
		{name: "confidence above one", mutate: func(c *Config) { c.Detector.MinDetectionConfidence = 1.5 }, wantErr: true},
		{name: "tracking confidence negative", mutate: func(c *Config) { c.Detector.MinTrackingConfidence = -0.1 }, wantErr: true},
		{name: "one hand", mutate: func(c *Config) { c.Detector.MaxNumHands = 1 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Keys.Backend = "xdotool" }, wantErr: true},
		{name: "plugin backend", mutate: func(c *Config) { c.Keys.Backend = "plugin" }},
		{name: "empty key", mutate: func(c *Config) { c.Keys.Left = "" }, wantErr: true},
		{name: "empty quit key", mutate: func(c *Config) { c.Display.QuitKey = "" }, wantErr: true},
		{name: "journal without path", mutate: func(c *Config) { c.Journal.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	c := validConfig()
	c.Keys.Left = "j"
	c.Camera.Device = 3
	c.Detector.Script = "/opt/mp.py"
	c.Detector.Interpreter = "/opt/venv/bin/python"

	opts := c.ControllerOptions()
	assert.Equal(t, 15.0, opts.Threshold)
	assert.Equal(t, 20.0, opts.MaxAngle)
	assert.Equal(t, "j", opts.Keys.Left)

	cam := c.CameraOptions()
	assert.Equal(t, 3, cam.Device)
	assert.True(t, cam.Mirror)

	det := c.TrackerConfig()
	assert.Equal(t, 2, det.MaxHands)
	assert.Equal(t, "/opt/mp.py", det.ScriptPath)
	assert.Equal(t, "/opt/venv/bin/python", det.Interpreter)

	assert.Equal(t, "robotgo", c.KeySinkConfig().Backend)
	assert.Equal(t, 'q', c.DisplayOptions().QuitKey)
}
