package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DirName  = "symone"
	FileName = "config.yaml"

	DefaultAPIURL = "https://symone-gateway-196867632933.us-central1.run.app"
)

type Config struct {
	APIURL string      `yaml:"api_url"`
	Role   string      `yaml:"role"`
	State  StateConfig `yaml:"state"`
	Log    LogConfig   `yaml:"log"`
	Poll   PollConfig  `yaml:"poll"`
	Output string      `yaml:"output"`
}

type StateConfig struct {
	Backend string `yaml:"backend"` // file|sqlite|postgres
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PollConfig struct {
	Activity      time.Duration `yaml:"activity"`
	Notifications time.Duration `yaml:"notifications"`
	Health        time.Duration `yaml:"health"`
}

// Dir returns ~/.config/symone.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", DirName), nil
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

func Default() Config {
	statePath := "state.json"
	if dir, err := Dir(); err == nil {
		statePath = filepath.Join(dir, "state.json")
	}
	return Config{
		APIURL: DefaultAPIURL,
		Role:   "user",
		State: StateConfig{
			Backend: "file",
			Path:    statePath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Poll: PollConfig{
			Activity:      10 * time.Second,
			Notifications: 30 * time.Second,
			Health:        5 * time.Second,
		},
		Output: "text",
	}
}

// Load reads path (a missing file yields defaults), applies the named profile
// and the environment overrides, and validates the result.
func Load(path, profile string) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			raw, err = LoadYAML(b)
			if err != nil {
				return Config{}, err
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	if profile == "" {
		profile = os.Getenv("SYMONE_PROFILE")
	}
	if profile != "" {
		var err error
		raw, err = ApplyProfile(raw, profile)
		if err != nil {
			return Config{}, err
		}
	}
	delete(raw, "profiles")

	cfg := Default()
	b, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config decode: %w", err)
	}
	applyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadYAML parses a config document into a generic mapping.
func LoadYAML(b []byte) (map[string]any, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config must be a YAML mapping")
	}
	return m, nil
}

// ApplyProfile shallow-merges profiles.<name> into the top level.
func ApplyProfile(cfg map[string]any, name string) (map[string]any, error) {
	c := cloneMap(cfg)
	profiles, _ := c["profiles"].(map[string]any)
	ovAny, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	ov, ok := ovAny.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("profiles.%s must be a mapping", name)
	}
	for k, v := range ov {
		c[k] = v
	}
	return c, nil
}

func Validate(cfg Config) error {
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", cfg.APIURL)
	}
	switch cfg.Role {
	case "user", "admin":
	default:
		return fmt.Errorf("role must be user or admin, got %q", cfg.Role)
	}
	switch cfg.State.Backend {
	case "file", "sqlite":
		if strings.TrimSpace(cfg.State.Path) == "" {
			return fmt.Errorf("state.path is required for the %s backend", cfg.State.Backend)
		}
	case "postgres":
		if strings.TrimSpace(cfg.State.DSN) == "" {
			return fmt.Errorf("state.dsn (or DATABASE_URL) is required for the postgres backend")
		}
	default:
		return fmt.Errorf("state.backend must be file, sqlite or postgres, got %q", cfg.State.Backend)
	}
	if cfg.Poll.Activity <= 0 || cfg.Poll.Notifications <= 0 || cfg.Poll.Health <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	switch cfg.Output {
	case "text", "json":
	default:
		return fmt.Errorf("output must be text or json, got %q", cfg.Output)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SYMONE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.State.DSN == "" {
		cfg.State.DSN = v
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
