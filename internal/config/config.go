// Package config loads handwheel settings from defaults, an optional config
// file, HANDWHEEL_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ayusman/handwheel/internal/capture"
	"github.com/ayusman/handwheel/internal/detector"
	"github.com/ayusman/handwheel/internal/display"
	"github.com/ayusman/handwheel/internal/keys"
	"github.com/ayusman/handwheel/internal/steering"
	"github.com/ayusman/handwheel/internal/wheel"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes environment overrides, e.g. HANDWHEEL_WHEEL_RADIUS.
const EnvPrefix = "HANDWHEEL"

// WheelConfig holds wheel geometry.
type WheelConfig struct {
	Radius int `mapstructure:"radius"`
}

// SteeringConfig holds the dead zone and angle limit in degrees.
type SteeringConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	MaxAngle  float64 `mapstructure:"maxAngle"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	Device int  `mapstructure:"device"`
	Width  int  `mapstructure:"width"`
	Height int  `mapstructure:"height"`
	FPS    int  `mapstructure:"fps"`
	Mirror bool `mapstructure:"mirror"`
}

// DetectorConfig holds hand tracker settings.
type DetectorConfig struct {
	MinDetectionConfidence float64 `mapstructure:"minDetectionConfidence"`
	MinTrackingConfidence  float64 `mapstructure:"minTrackingConfidence"`
	MaxNumHands            int     `mapstructure:"maxNumHands"`
	Script                 string  `mapstructure:"script"`
	Interpreter            string  `mapstructure:"interpreter"`
}

// KeysConfig selects the key backend and the key names.
type KeysConfig struct {
	Backend   string `mapstructure:"backend"`
	Forward   string `mapstructure:"forward"`
	Left      string `mapstructure:"left"`
	Right     string `mapstructure:"right"`
	PluginDir string `mapstructure:"pluginDir"`
	Plugin    string `mapstructure:"plugin"`
	TimeoutMs int    `mapstructure:"timeoutMs"`
}

// DisplayConfig configures the preview window.
type DisplayConfig struct {
	Window        string `mapstructure:"window"`
	WaitMs        int    `mapstructure:"waitMs"`
	QuitKey       string `mapstructure:"quitKey"`
	DrawLandmarks bool   `mapstructure:"drawLandmarks"`
}

// JournalConfig enables the drive journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Config is the complete application configuration.
type Config struct {
	Wheel    WheelConfig    `mapstructure:"wheel"`
	Steering SteeringConfig `mapstructure:"steering"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Detector DetectorConfig `mapstructure:"detector"`
	Keys     KeysConfig     `mapstructure:"keys"`
	Display  DisplayConfig  `mapstructure:"display"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Log      LogConfig      `mapstructure:"log"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("wheel.radius", wheel.DefaultRadius)

	viper.SetDefault("steering.threshold", steering.DefaultThreshold)
	viper.SetDefault("steering.maxAngle", steering.DefaultMaxAngle)

	viper.SetDefault("camera.device", 0)
	viper.SetDefault("camera.width", capture.DefaultWidth)
	viper.SetDefault("camera.height", capture.DefaultHeight)
	viper.SetDefault("camera.fps", 0)
	viper.SetDefault("camera.mirror", true)

	viper.SetDefault("detector.minDetectionConfidence", 0.7)
	viper.SetDefault("detector.minTrackingConfidence", 0.7)
	viper.SetDefault("detector.maxNumHands", 2)
	viper.SetDefault("detector.script", "")
	viper.SetDefault("detector.interpreter", "")

	viper.SetDefault("keys.backend", keys.BackendRobotgo)
	viper.SetDefault("keys.forward", "w")
	viper.SetDefault("keys.left", "a")
	viper.SetDefault("keys.right", "d")
	viper.SetDefault("keys.pluginDir", "./plugins")
	viper.SetDefault("keys.plugin", "keyboard")
	viper.SetDefault("keys.timeoutMs", 2000)

	viper.SetDefault("display.window", display.DefaultTitle)
	viper.SetDefault("display.waitMs", display.DefaultWaitMs)
	viper.SetDefault("display.quitKey", string(display.DefaultQuitKey))
	viper.SetDefault("display.drawLandmarks", true)

	viper.SetDefault("journal.enabled", false)
	viper.SetDefault("journal.path", filepath.Join("~", ".handwheel", "journal.db"))

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.pretty", true)
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"radius":       "wheel.radius",
	"threshold":    "steering.threshold",
	"max-angle":    "steering.maxAngle",
	"camera":       "camera.device",
	"width":        "camera.width",
	"height":       "camera.height",
	"mirror":       "camera.mirror",
	"keys":         "keys.backend",
	"plugin-dir":   "keys.pluginDir",
	"landmarks":    "display.drawLandmarks",
	"journal":      "journal.enabled",
	"journal-path": "journal.path",
	"log-level":    "log.level",
	"pretty":       "log.pretty",
}

// RegisterFlags defines the command-line flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file (default: handwheel.{yaml,json,toml} in . or ~/.handwheel)")
	fs.Int("radius", wheel.DefaultRadius, "steering wheel radius in pixels")
	fs.Float64("threshold", steering.DefaultThreshold, "dead zone in degrees before turning")
	fs.Float64("max-angle", steering.DefaultMaxAngle, "maximum steering angle in degrees")
	fs.Int("camera", 0, "camera device index")
	fs.Int("width", capture.DefaultWidth, "requested frame width")
	fs.Int("height", capture.DefaultHeight, "requested frame height")
	fs.Bool("mirror", true, "mirror frames horizontally")
	fs.String("keys", keys.BackendRobotgo, "key backend: robotgo or plugin")
	fs.String("plugin-dir", "./plugins", "directory searched for the keyboard plugin")
	fs.Bool("landmarks", true, "draw the hand skeletons")
	fs.Bool("journal", false, "record the drive journal")
	fs.String("journal-path", filepath.Join("~", ".handwheel", "journal.db"), "drive journal database")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Bool("pretty", true, "human-readable console logs")
}

// Load builds the configuration. fs may be nil; when set it must have been
// prepared with RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configFile := ""
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := viper.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		configFile, _ = fs.GetString("config")
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("handwheel")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".handwheel"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Journal.Path = expandHome(cfg.Journal.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFile returns the config file that was read, if any.
func ConfigFile() string {
	return viper.ConfigFileUsed()
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Wheel.Radius <= 0:
		return fmt.Errorf("%w: wheel.radius must be positive, got %d", ErrInvalidConfig, c.Wheel.Radius)
	case c.Steering.Threshold < 0:
		return fmt.Errorf("%w: steering.threshold must not be negative, got %v", ErrInvalidConfig, c.Steering.Threshold)
	case c.Steering.MaxAngle < c.Steering.Threshold:
		return fmt.Errorf("%w: steering.maxAngle (%v) is below steering.threshold (%v)", ErrInvalidConfig, c.Steering.MaxAngle, c.Steering.Threshold)
	case c.Camera.Width <= 0 || c.Camera.Height <= 0:
		return fmt.Errorf("%w: camera size must be positive, got %dx%d", ErrInvalidConfig, c.Camera.Width, c.Camera.Height)
	case !unit(c.Detector.MinDetectionConfidence) || !unit(c.Detector.MinTrackingConfidence):
		return fmt.Errorf("%w: detector confidences must be within [0,1]", ErrInvalidConfig)
	case c.Detector.MaxNumHands < 2:
		return fmt.Errorf("%w: detector.maxNumHands must be at least 2, got %d", ErrInvalidConfig, c.Detector.MaxNumHands)
	case c.Keys.Backend != keys.BackendRobotgo && c.Keys.Backend != keys.BackendPlugin:
		return fmt.Errorf("%w: unknown keys.backend %q", ErrInvalidConfig, c.Keys.Backend)
	case c.Keys.Forward == "" || c.Keys.Left == "" || c.Keys.Right == "":
		return fmt.Errorf("%w: key names must not be empty", ErrInvalidConfig)
	case c.Display.QuitKey == "":
		return fmt.Errorf("%w: display.quitKey must not be empty", ErrInvalidConfig)
	case c.Journal.Enabled && c.Journal.Path == "":
		return fmt.Errorf("%w: journal.path is required when the journal is enabled", ErrInvalidConfig)
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ControllerOptions returns the steering controller settings.
func (c *Config) ControllerOptions() steering.ControllerOptions {
	return steering.ControllerOptions{
		Threshold: c.Steering.Threshold,
		MaxAngle:  c.Steering.MaxAngle,
		Keys: steering.KeyMap{
			Forward: c.Keys.Forward,
			Left:    c.Keys.Left,
			Right:   c.Keys.Right,
		},
	}
}

// CameraOptions returns the capture settings.
func (c *Config) CameraOptions() capture.Options {
	return capture.Options{
		Device: c.Camera.Device,
		Width:  c.Camera.Width,
		Height: c.Camera.Height,
		FPS:    c.Camera.FPS,
		Mirror: c.Camera.Mirror,
	}
}

// TrackerConfig returns the hand tracker settings.
func (c *Config) TrackerConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxNumHands,
		MinConfidence:   c.Detector.MinDetectionConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		ScriptPath:      c.Detector.Script,
		Interpreter:     c.Detector.Interpreter,
	}
}

// KeySinkConfig returns the key sink settings.
func (c *Config) KeySinkConfig() keys.Config {
	return keys.Config{
		Backend:   c.Keys.Backend,
		PluginDir: c.Keys.PluginDir,
		Plugin:    c.Keys.Plugin,
		TimeoutMs: c.Keys.TimeoutMs,
	}
}

// DisplayOptions returns the window settings.
func (c *Config) DisplayOptions() display.Options {
	return display.Options{
		Title:   c.Display.Window,
		WaitMs:  c.Display.WaitMs,
		QuitKey: []rune(c.Display.QuitKey)[0],
	}
}
