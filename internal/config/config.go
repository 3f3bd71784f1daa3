// Package config loads the optional fiber.yaml of a project and resolves it
// against defaults derived from the project's go.mod.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// FileName is the configuration file looked up in the project root.
const FileName = "fiber.yaml"

// DefaultDebugAddr is where the debug server listens when enabled without an address.
const DefaultDebugAddr = ":9750"

// Config represents the optional fiber.yaml configuration.
type Config struct {
	App    AppConfig    `yaml:"app"`
	Engine EngineConfig `yaml:"engine"`
	Debug  DebugConfig  `yaml:"debug"`
	Log    LogConfig    `yaml:"log"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// EngineConfig contains render engine settings.
type EngineConfig struct {
	QueuePolicy     string `yaml:"queue_policy,omitempty"`
	TimeSlice       string `yaml:"time_slice,omitempty"`
	MaxUnitsPerTurn int    `yaml:"max_units_per_turn,omitempty"`
}

// DebugConfig controls the HTTP debug server.
type DebugConfig struct {
	Addr    string `yaml:"addr,omitempty"`
	Enabled bool   `yaml:"enabled,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root            string
	ModulePath      string
	AppName         string
	Policy          hooks.Policy
	TimeSlice       time.Duration
	MaxUnitsPerTurn int
	DebugAddr       string
	DebugEnabled    bool
	LogLevel        zerolog.Level
}

// Defaults returns the values used when no project or fiber.yaml is present.
func Defaults() *Resolved {
	return &Resolved{
		AppName:   "fiber_app",
		Policy:    hooks.PolicyCircular,
		TimeSlice: scheduler.DefaultSlice,
		DebugAddr: DefaultDebugAddr,
		LogLevel:  zerolog.InfoLevel,
	}
}

// LoadOptional reads fiber.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, invalid(fmt.Errorf("failed to read %s: %w", FileName, err))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, invalid(fmt.Errorf("failed to parse %s: %w", FileName, err))
	}

	return &cfg, nil
}

// Resolve loads fiber.yaml (if present) from the module rooted at dir and
// resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	res, err := cfg.Apply(Defaults())
	if err != nil {
		return nil, err
	}
	res.Root = dir
	res.ModulePath = modulePath
	if strings.TrimSpace(cfg.App.Name) == "" {
		res.AppName = defaultAppName(modulePath, dir)
	}
	return res, nil
}

// Apply overlays the values set in cfg onto a copy of base.
func (cfg *Config) Apply(base *Resolved) (*Resolved, error) {
	res := *base

	if name := strings.TrimSpace(cfg.App.Name); name != "" {
		res.AppName = name
	}

	if cfg.Engine.QueuePolicy != "" {
		policy, err := hooks.ParsePolicy(strings.TrimSpace(cfg.Engine.QueuePolicy))
		if err != nil {
			return nil, invalid(fmt.Errorf("engine.queue_policy: %w", err))
		}
		res.Policy = policy
	}

	if slice := strings.TrimSpace(cfg.Engine.TimeSlice); slice != "" {
		d, err := time.ParseDuration(slice)
		if err != nil {
			return nil, invalid(fmt.Errorf("engine.time_slice: %w", err))
		}
		if d <= scheduler.MinRemaining {
			return nil, invalid(fmt.Errorf("engine.time_slice must be longer than %s (got %s)", scheduler.MinRemaining, slice))
		}
		res.TimeSlice = d
	}

	if cfg.Engine.MaxUnitsPerTurn < 0 {
		return nil, invalid(fmt.Errorf("engine.max_units_per_turn cannot be negative (got %d)", cfg.Engine.MaxUnitsPerTurn))
	}
	if cfg.Engine.MaxUnitsPerTurn > 0 {
		res.MaxUnitsPerTurn = cfg.Engine.MaxUnitsPerTurn
	}

	if addr := strings.TrimSpace(cfg.Debug.Addr); addr != "" {
		res.DebugAddr = addr
	}
	if cfg.Debug.Enabled {
		res.DebugEnabled = true
	}

	if level := strings.TrimSpace(cfg.Log.Level); level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, invalid(fmt.Errorf("log.level: %w", err))
		}
		res.LogLevel = lvl
	}

	return &res, nil
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findRoot(dir)
}

func findRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", invalid(fmt.Errorf("could not determine module path from go.mod"))
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	modName, _, ok := module.SplitPathVersion(modulePath)
	if ok {
		parts := strings.Split(modName, "/")
		if len(parts) > 0 {
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "fiber_app"
	}
	return base
}

func invalid(err error) error {
	return &fibererrors.FiberError{
		Op:        "config.resolve",
		Kind:      fibererrors.KindConfig,
		Err:       err,
		Timestamp: time.Now(),
	}
}
