// Package config loads mudra's tunables from defaults, an optional JSON file,
// MUDRA_* environment variables, command-line flags and stored overrides.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ayusman/mudra/internal/gesture"
)

// FileName is the config file looked up in the config directory.
const FileName = "mudra.json"

// EnvPrefix prefixes environment overrides, e.g. MUDRA_CLICK_COOLDOWN.
const EnvPrefix = "MUDRA"

// Pointer backends.
const (
	BackendRobotgo = "robotgo"
	BackendPlugin  = "plugin"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ErrUnknownKey is returned for a setting that has no default.
var ErrUnknownKey = errors.New("unknown setting")

// CameraConfig selects the capture device and its pacing.
type CameraConfig struct {
	ID              int           `mapstructure:"id"`
	Width           int           `mapstructure:"width"`
	Height          int           `mapstructure:"height"`
	MotionThreshold float64       `mapstructure:"motionThreshold"`
	IdleFPS         int           `mapstructure:"idleFps"`
	ActiveFPS       int           `mapstructure:"activeFps"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
}

// RegionConfig insets the detection region from the camera frame edges.
type RegionConfig struct {
	Margin int `mapstructure:"margin"`
}

// ScreenConfig overrides the screen size reported by the pointer backend.
// Zero means use the backend's size.
type ScreenConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type CursorConfig struct {
	Smoothing float64 `mapstructure:"smoothing"`
	MirrorX   bool    `mapstructure:"mirrorX"`
}

type ClickConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// ScrollConfig positions are percentages of the region height.
type ScrollConfig struct {
	DeadzoneCenter    float64 `mapstructure:"deadzoneCenter"`
	DeadzoneHalfWidth float64 `mapstructure:"deadzoneHalfWidth"`
	Gain              float64 `mapstructure:"gain"`
	MinSpeed          int     `mapstructure:"minSpeed"`
}

type DragConfig struct {
	HoldButton bool `mapstructure:"holdButton"`
}

// PointerConfig selects how pointer events reach the OS.
type PointerConfig struct {
	Backend   string        `mapstructure:"backend"`
	PluginDir string        `mapstructure:"pluginDir"`
	Plugin    string        `mapstructure:"plugin"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type DetectorConfig struct {
	MinConfidence         float64 `mapstructure:"minConfidence"`
	MinTrackingConfidence float64 `mapstructure:"minTrackingConfidence"`
	Script                string  `mapstructure:"script"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the fully resolved configuration.
type Config struct {
	DataDir    string             `mapstructure:"dataDir"`
	Camera     CameraConfig       `mapstructure:"camera"`
	Region     RegionConfig       `mapstructure:"region"`
	Screen     ScreenConfig       `mapstructure:"screen"`
	Cursor     CursorConfig       `mapstructure:"cursor"`
	Thresholds gesture.Thresholds `mapstructure:"thresholds"`
	Click      ClickConfig        `mapstructure:"click"`
	Scroll     ScrollConfig       `mapstructure:"scroll"`
	Drag       DragConfig         `mapstructure:"drag"`
	Pointer    PointerConfig      `mapstructure:"pointer"`
	Detector   DetectorConfig     `mapstructure:"detector"`
	HTTP       HTTPConfig         `mapstructure:"http"`
	Log        LogConfig          `mapstructure:"log"`
	Tray       TrayConfig         `mapstructure:"tray"`
}

func defaults() map[string]any {
	t := gesture.DefaultThresholds()
	return map[string]any{
		"dataDir": "~/.mudra",

		"camera.id":              0,
		"camera.width":           640,
		"camera.height":          480,
		"camera.motionThreshold": 1.0,
		"camera.idleFps":         5,
		"camera.activeFps":       15,
		"camera.idleTimeout":     "2s",

		"region.margin": 100,

		"screen.width":  0,
		"screen.height": 0,

		"cursor.smoothing": 7.0,
		"cursor.mirrorX":   true,

		"thresholds.leftClick":   t.LeftClick,
		"thresholds.rightClick":  t.RightClick,
		"thresholds.doubleClick": t.DoubleClick,
		"thresholds.scrollMin":   t.ScrollMin,
		"thresholds.scrollMax":   t.ScrollMax,
		"thresholds.drag":        t.Drag,

		"click.cooldown": "300ms",

		"scroll.deadzoneCenter":    50.0,
		"scroll.deadzoneHalfWidth": 10.0,
		"scroll.gain":              0.5,
		"scroll.minSpeed":          1,

		"drag.holdButton": true,

		"pointer.backend":   BackendRobotgo,
		"pointer.pluginDir": "~/.mudra/plugins",
		"pointer.plugin":    "xdotool-pointer",
		"pointer.timeout":   "2s",

		"detector.minConfidence":         0.5,
		"detector.minTrackingConfidence": 0.5,
		"detector.script":                "",

		"http.addr": "127.0.0.1:8080",

		"log.level":  "info",
		"log.format": "console",

		"tray.enabled": true,
	}
}

// Keys returns every known setting key, sorted.
func Keys() []string {
	d := defaults()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsKnown reports whether key names a setting. Keys are case-insensitive.
func IsKnown(key string) bool {
	_, ok := Canonical(key)
	return ok
}

// Canonical returns the spelling of key used in defaults and the store.
func Canonical(key string) (string, bool) {
	for k := range defaults() {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

// Load reads configuration into v and decodes it. configDir is searched for
// mudra.json; a missing file is not an error. Flags bound to v before the
// call take precedence over the file and the environment.
func Load(v *viper.Viper, configDir string) (Config, error) {
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		v.SetConfigName(strings.TrimSuffix(FileName, ".json"))
		v.SetConfigType("json")
		v.AddConfigPath(configDir)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	return decode(v)
}

// ApplyOverrides layers stored settings over v and decodes the result.
// Values are strings as persisted; they are converted to each field's type.
func ApplyOverrides(v *viper.Viper, overrides map[string]string) (Config, error) {
	for key, value := range overrides {
		k, ok := Canonical(key)
		if !ok {
			return Config{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		v.Set(k, value)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks every tunable and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Camera.Width > 0 && c.Camera.Height > 0,
		"camera size %dx%d must be positive", c.Camera.Width, c.Camera.Height)
	check(c.Camera.IdleFPS > 0 && c.Camera.ActiveFPS >= c.Camera.IdleFPS,
		"camera fps: need 0 < idleFps (%d) <= activeFps (%d)", c.Camera.IdleFPS, c.Camera.ActiveFPS)
	check(c.Camera.MotionThreshold > 0, "camera.motionThreshold %v must be positive", c.Camera.MotionThreshold)

	check(c.Region.Margin >= 0 && 2*c.Region.Margin < c.Camera.Width && 2*c.Region.Margin < c.Camera.Height,
		"region.margin %d leaves no detection region in a %dx%d frame", c.Region.Margin, c.Camera.Width, c.Camera.Height)
	check(c.Screen.Width >= 0 && c.Screen.Height >= 0,
		"screen size %dx%d must not be negative", c.Screen.Width, c.Screen.Height)

	check(c.Cursor.Smoothing > 0, "cursor.smoothing %v must be positive", c.Cursor.Smoothing)

	t := c.Thresholds
	for name, val := range map[string]float64{
		"leftClick":   t.LeftClick,
		"rightClick":  t.RightClick,
		"doubleClick": t.DoubleClick,
		"scrollMin":   t.ScrollMin,
		"scrollMax":   t.ScrollMax,
		"drag":        t.Drag,
	} {
		check(val > 0, "thresholds.%s %v must be positive", name, val)
	}
	check(t.ScrollMin < t.ScrollMax, "thresholds: scrollMin %v must be below scrollMax %v", t.ScrollMin, t.ScrollMax)
	check(t.ScrollMin >= t.LeftClick, "thresholds: scrollMin %v overlaps the left click zone below %v", t.ScrollMin, t.LeftClick)

	check(c.Click.Cooldown >= 0, "click.cooldown %v must not be negative", c.Click.Cooldown)

	s := c.Scroll
	check(s.DeadzoneHalfWidth >= 0 && s.DeadzoneHalfWidth < 50,
		"scroll.deadzoneHalfWidth %v must be within 0..50 (exclusive)", s.DeadzoneHalfWidth)
	check(s.DeadzoneCenter-s.DeadzoneHalfWidth >= 0 && s.DeadzoneCenter+s.DeadzoneHalfWidth <= 100,
		"scroll deadzone %v±%v must lie within 0..100", s.DeadzoneCenter, s.DeadzoneHalfWidth)
	check(s.Gain > 0, "scroll.gain %v must be positive", s.Gain)
	check(s.MinSpeed >= 1, "scroll.minSpeed %d must be at least 1", s.MinSpeed)

	check(c.Pointer.Backend == BackendRobotgo || c.Pointer.Backend == BackendPlugin,
		"pointer.backend %q must be %q or %q", c.Pointer.Backend, BackendRobotgo, BackendPlugin)
	if c.Pointer.Backend == BackendPlugin {
		check(c.Pointer.Plugin != "", "pointer.plugin is required for the plugin backend")
	}
	check(c.Pointer.Timeout > 0, "pointer.timeout %v must be positive", c.Pointer.Timeout)

	check(inUnit(c.Detector.MinConfidence), "detector.minConfidence %v must be within 0..1", c.Detector.MinConfidence)
	check(inUnit(c.Detector.MinTrackingConfidence), "detector.minTrackingConfidence %v must be within 0..1", c.Detector.MinTrackingConfidence)

	_, err := zerolog.ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q is not a level", c.Log.Level)
	check(c.Log.Format == "console" || c.Log.Format == "json", "log.format %q must be console or json", c.Log.Format)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
