package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"github.com/drakos74/cv-scratch/internal/pixel"
	"github.com/drakos74/cv-scratch/internal/sandbox"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	portEnv  = "CVLAB_PORT"
	debugEnv = "CVLAB_DEBUG"
)

// Server configures the http api.
type Server struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
	// Sessions caps the open sessions, zero means no cap.
	Sessions int `yaml:"sessions"`
	// Idle expires sessions without requests for that long, zero keeps them until closed.
	Idle time.Duration `yaml:"idle"`
}

// Grid configures the initial pixel grid.
type Grid struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the full application configuration.
type Config struct {
	Server  Server         `yaml:"server"`
	Sandbox sandbox.Config `yaml:"sandbox"`
	Grid    Grid           `yaml:"grid"`
	Level   string         `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Name:     "cvlab",
			Port:     6080,
			Sessions: 1000,
			Idle:     30 * time.Minute,
		},
		Sandbox: sandbox.DefaultConfig(),
		Grid: Grid{
			Width:  pixel.DefaultSize,
			Height: pixel.DefaultSize,
		},
		Level: zerolog.InfoLevel.String(),
	}
}

// Load reads the yaml file on top of the defaults and applies the environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := ioutil.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("could not parse config file '%s': %w", path, err)
		}
	}
	if err := cfg.env(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg *Config) env() error {
	if port := os.Getenv(portEnv); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("could not parse %s='%s': %w", portEnv, port, err)
		}
		cfg.Server.Port = p
	}
	if debug := os.Getenv(debugEnv); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err != nil {
			return fmt.Errorf("could not parse %s='%s': %w", debugEnv, debug, err)
		}
		cfg.Server.Debug = d
	}
	return nil
}

// LogLevel parses the configured level.
func (cfg Config) LogLevel() (zerolog.Level, error) {
	if cfg.Server.Debug {
		return zerolog.DebugLevel, nil
	}
	return zerolog.ParseLevel(cfg.Level)
}
