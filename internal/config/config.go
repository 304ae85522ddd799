// Package config loads predict-server and predict-cli settings. Values come
// from built-in defaults, an optional YAML file, optional .env files and
// finally PREDICTFORM_* environment variables, each layer overriding the one
// before it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment key read by Load.
const EnvPrefix = "PREDICTFORM_"

// Predictor kinds.
const (
	PredictorStatic   = "static"
	PredictorUpstream = "upstream"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Page      PageConfig      `yaml:"page"`
	Predictor PredictorConfig `yaml:"predictor"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the development server.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	StaticDir      string        `yaml:"static_dir"`
	TemplatesDir   string        `yaml:"templates_dir"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	GinMode        string        `yaml:"gin_mode"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
	StrictEnums    bool          `yaml:"strict_enums"`
}

// PageConfig tunes the rendered page.
type PageConfig struct {
	Title    string `yaml:"title"`
	Currency string `yaml:"currency"`
	WASM     string `yaml:"wasm"`
	WASMExec string `yaml:"wasm_exec"`
}

// PredictorConfig selects how the server answers POST /predict.
type PredictorConfig struct {
	Kind        string        `yaml:"kind"`
	StaticPrice float64       `yaml:"static_price"`
	UpstreamURL string        `yaml:"upstream_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ClientConfig configures predict-cli.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel parses Level, falling back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			StaticDir:      "static",
			AllowedOrigins: []string{"*"},
			GinMode:        "release",
			ShutdownGrace:  5 * time.Second,
		},
		Page: PageConfig{
			Title:    "Car Price Predictor",
			Currency: "USD",
			WASM:     "/static/predictform.wasm",
			WASMExec: "/static/wasm_exec.js",
		},
		Predictor: PredictorConfig{
			Kind:        PredictorStatic,
			StaticPrice: 10000,
			Timeout:     10 * time.Second,
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8000/",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

type loadOptions struct {
	envFiles []string
	lookup   func(string) (string, bool)
}

// Option customises Load.
type Option func(*loadOptions)

// WithEnvFiles loads the given dotenv files before reading the environment.
// Missing files are ignored. Variables already set are never overwritten.
func WithEnvFiles(files ...string) Option {
	return func(o *loadOptions) {
		o.envFiles = append(o.envFiles, files...)
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(o *loadOptions) {
		if fn != nil {
			o.lookup = fn
		}
	}
}

// Load builds the configuration. path may be empty to skip the YAML layer.
func Load(path string, options ...Option) (*Config, error) {
	opts := loadOptions{lookup: os.LookupEnv}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	for _, file := range opts.envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file %s: %w", file, err)
		}
	}
	if err := cfg.applyEnv(opts.lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("config: file %s is empty", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	strs := map[string]*string{
		"ADDR":          &c.Server.Addr,
		"STATIC_DIR":    &c.Server.StaticDir,
		"TEMPLATES_DIR": &c.Server.TemplatesDir,
		"GIN_MODE":      &c.Server.GinMode,
		"TITLE":         &c.Page.Title,
		"CURRENCY":      &c.Page.Currency,
		"WASM":          &c.Page.WASM,
		"WASM_EXEC":     &c.Page.WASMExec,
		"PREDICTOR":     &c.Predictor.Kind,
		"UPSTREAM_URL":  &c.Predictor.UpstreamURL,
		"BASE_URL":      &c.Client.BaseURL,
		"LOG_LEVEL":     &c.Log.Level,
		"LOG_FORMAT":    &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SHUTDOWN_GRACE":    &c.Server.ShutdownGrace,
		"PREDICTOR_TIMEOUT": &c.Predictor.Timeout,
		"CLIENT_TIMEOUT":    &c.Client.Timeout,
	}
	for key, dst := range durations {
		v, ok := get(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := get("STATIC_PRICE"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %sSTATIC_PRICE: %w", EnvPrefix, err)
		}
		c.Predictor.StaticPrice = price
	}
	if v, ok := get("STRICT_ENUMS"); ok {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sSTRICT_ENUMS: %w", EnvPrefix, err)
		}
		c.Server.StrictEnums = strict
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate reports configuration that cannot be served.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr is required")
	}
	switch c.Predictor.Kind {
	case PredictorStatic:
		if math.IsNaN(c.Predictor.StaticPrice) || math.IsInf(c.Predictor.StaticPrice, 0) {
			return errors.New("config: predictor.static_price must be a finite number")
		}
	case PredictorUpstream:
		if strings.TrimSpace(c.Predictor.UpstreamURL) == "" {
			return errors.New("config: predictor.upstream_url is required for the upstream predictor")
		}
	default:
		return fmt.Errorf("config: unknown predictor kind %q", c.Predictor.Kind)
	}
	if c.Predictor.Timeout <= 0 {
		return errors.New("config: predictor.timeout must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
