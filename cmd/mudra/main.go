package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

// flagKeys binds command-line flags to config keys.
var flagKeys = map[string]string{
	"log-level":       "log.level",
	"log-format":      "log.format",
	"http-addr":       "http.addr",
	"camera":          "camera.id",
	"pointer-backend": "pointer.backend",
	"plugin":          "pointer.plugin",
	"tray":            "tray.enabled",
	"mirror":          "cursor.mirrorX",
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "mudra:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("mudra", pflag.ContinueOnError)
	configDir := flags.String("config-dir", "~/.mudra", "directory holding "+config.FileName)
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("http-addr", "127.0.0.1:8080", "overlay and settings server address")
	flags.Int("camera", 0, "camera device id")
	flags.String("pointer-backend", config.BackendRobotgo, "pointer backend (robotgo, plugin)")
	flags.String("plugin", "xdotool-pointer", "pointer plugin name for the plugin backend")
	flags.Bool("tray", true, "show the system tray menu")
	flags.Bool("mirror", true, "mirror the camera horizontally")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	v := viper.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	dir := expandHome(*configDir)
	baseCfg, err := config.Load(v, dir)
	if err != nil {
		return err
	}

	dataDir := expandHome(baseCfg.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(dataDir, "mudra.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	overrides, err := st.Settings().Map()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	cfg, err := config.ApplyOverrides(v, withoutFlagged(overrides, flags))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	log.Info().Str("data_dir", dataDir).Int("overrides", len(overrides)).Msg("configuration loaded")

	m, err := metrics.NewGlobal()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ptr, err := newPointer(ctx, cfg, log)
	if err != nil {
		return err
	}

	det := newDetector(cfg, log)
	defer det.Close()

	a, err := app.New(app.Options{
		Config: cfg,
		Camera: capture.NewCamera(capture.CameraConfig{
			DeviceID: cfg.Camera.ID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.IdleFPS,
		}),
		Detector: det,
		Pointer:  ptr,
		Log:      log,
		Metrics:  m,
	})
	if err != nil {
		return err
	}

	hub := server.NewOverlayHub(log)
	a.Observe(hub.Publish)

	srv := server.New(server.Config{
		StaticDir: findWebDir(dataDir),
		Store:     st,
		Validate:  settingsValidator(dir),
		App:       a,
		Overlay:   hub,
		Metrics:   m,
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return a.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		return srv.Serve(gctx, cfg.HTTP.Addr)
	})

	if cfg.Tray.Enabled {
		t := tray.New(a.IsEnabled())
		t.OnToggle(a.SetEnabled)
		t.OnSettings(func() {
			if err := openBrowser("http://" + cfg.HTTP.Addr); err != nil {
				log.Warn().Err(err).Msg("open browser")
			}
		})
		t.OnQuit(stop)
		a.Observe(t.Update)

		go func() {
			<-gctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine on macOS.
		t.Run()
		stop()
	}

	err = g.Wait()
	log.Info().Msg("stopped")
	return err
}

// withoutFlagged drops stored overrides for keys set on the command line,
// so flags keep the highest precedence.
func withoutFlagged(overrides map[string]string, flags *pflag.FlagSet) map[string]string {
	out := make(map[string]string, len(overrides))
	for k, v := range overrides {
		out[k] = v
	}
	for name, key := range flagKeys {
		if flags.Changed(name) {
			for k := range out {
				if strings.EqualFold(k, key) {
					delete(out, k)
				}
			}
		}
	}
	return out
}

// settingsValidator checks stored overrides against a fresh load of the file
// and environment, so a bad edit is rejected before it is persisted.
func settingsValidator(configDir string) func(map[string]string) error {
	return func(overrides map[string]string) error {
		v := viper.New()
		if _, err := config.Load(v, configDir); err != nil {
			return err
		}
		cfg, err := config.ApplyOverrides(v, overrides)
		if err != nil {
			return err
		}
		return cfg.Validate()
	}
}

func newPointer(ctx context.Context, cfg config.Config, log zerolog.Logger) (pointer.Pointer, error) {
	if cfg.Pointer.Backend == config.BackendRobotgo {
		return pointer.NewRobot(), nil
	}

	mgr := plugin.NewManager(expandHome(cfg.Pointer.PluginDir), log)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	p, err := mgr.Get(cfg.Pointer.Plugin)
	if err != nil {
		var names []string
		for _, p := range mgr.List() {
			names = append(names, p.Manifest.Name)
		}
		return nil, fmt.Errorf("pointer plugin %q in %s (found %v): %w", cfg.Pointer.Plugin, mgr.PluginDir(), names, err)
	}
	ptr, err := pointer.NewPlugin(ctx, plugin.NewExecutor(cfg.Pointer.Timeout), p)
	if err != nil {
		return nil, err
	}
	log.Info().Str("plugin", p.Manifest.Name).Str("version", p.Manifest.Version).Msg("using pointer plugin")
	return ptr, nil
}

// newDetector starts the MediaPipe detector, falling back to a detector that
// never sees a hand so the overlay and settings still work.
func newDetector(cfg config.Config, log zerolog.Logger) detector.Detector {
	det, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        1,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConfidence,
		ScriptPath:      expandHome(cfg.Detector.Script),
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("hand detection unavailable, pointer control disabled")
		return detector.NewMockDetector()
	}
	return det
}

// findWebDir returns the first overlay web directory found, or "".
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
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

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
