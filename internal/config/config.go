package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config represents the prreview configuration.
type Config struct {
	RepoPath        string        `json:"repoPath"`
	Provider        string        `json:"provider"`
	Endpoint        string        `json:"endpoint"`
	Model           string        `json:"model"`
	TimeoutSeconds  int           `json:"timeoutSeconds"`
	Workers         int           `json:"workers"`
	Format          string        `json:"format"`
	Template        string        `json:"template,omitempty"`
	IncludeContent  bool          `json:"includeContent"`
	MaxContentBytes int           `json:"maxContentBytes"`
	ContextLines    int           `json:"contextLines"`
	Include         []string      `json:"include,omitempty"`
	Exclude         []string      `json:"exclude,omitempty"`
	Privacy         PrivacyConfig `json:"privacy"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Formats lists the accepted output formats.
var Formats = []string{"json", "text", "markdown"}

// Keys lists the keys accepted by SetField and Load overrides, in the order
// overrides are applied.
var Keys = []string{
	"repoPath",
	"provider",
	"endpoint",
	"model",
	"timeoutSeconds",
	"workers",
	"format",
	"template",
	"includeContent",
	"maxContentBytes",
	"contextLines",
	"include",
	"exclude",
	"privacy.redactSecrets",
	"privacy.redactPaths",
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		RepoPath:        ".",
		Provider:        "ollama",
		Endpoint:        "http://localhost:11434",
		Model:           "llama3",
		TimeoutSeconds:  300,
		Workers:         1,
		Format:          "json",
		IncludeContent:  true,
		MaxContentBytes: 100000,
		ContextLines:    -1, // git's default
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// Timeout returns TimeoutSeconds as a duration. Zero means no timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Provider != "ollama" {
		return fmt.Errorf("unsupported provider %q (supported: ollama)", c.Provider)
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint must not be empty")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if !validFormat(c.Format) {
		return fmt.Errorf("unknown format %q (supported: %s)", c.Format, strings.Join(Formats, ", "))
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeoutSeconds must not be negative, got %d", c.TimeoutSeconds)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxContentBytes < 0 {
		return fmt.Errorf("maxContentBytes must not be negative, got %d", c.MaxContentBytes)
	}
	if c.ContextLines < -1 {
		return fmt.Errorf("contextLines must be -1 (git default) or more, got %d", c.ContextLines)
	}
	return nil
}

func validFormat(f string) bool {
	for _, v := range Formats {
		if f == v {
			return true
		}
	}
	return false
}

// ConfigDir returns the platform-appropriate config directory for prreview.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prreview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "prreview"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "prreview"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "prreview"), nil
	default:
		return filepath.Join(home, ".config", "prreview"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile returns the defaults overlaid with the config file. Keys missing
// from the file keep their default, so an explicit false survives while an
// absent one does not. A missing file yields the defaults.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only flags the user set should be present).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv("PRREVIEW_REPO"); v != "" {
		cfg.RepoPath = v
	}
	if v := os.Getenv("PRREVIEW_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("PRREVIEW_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("PRREVIEW_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("PRREVIEW_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("PRREVIEW_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PRREVIEW_TIMEOUT must be an integer number of seconds: %w", err)
		}
		cfg.TimeoutSeconds = n
	}
	if v := os.Getenv("PRREVIEW_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PRREVIEW_WORKERS must be an integer: %w", err)
		}
		cfg.Workers = n
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for _, key := range Keys {
		v, ok := overrides[key]
		if !ok {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	for key := range overrides {
		if !knownKey(key) {
			return fmt.Errorf("unknown config key: %s", key)
		}
	}
	return nil
}

func knownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the value does not parse. List values are comma-separated; an
// empty value clears the list.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "repoPath":
		cfg.RepoPath = value
	case "provider":
		cfg.Provider = value
	case "endpoint":
		cfg.Endpoint = value
	case "model":
		cfg.Model = value
	case "timeoutSeconds":
		return setInt(&cfg.TimeoutSeconds, key, value)
	case "workers":
		return setInt(&cfg.Workers, key, value)
	case "format":
		cfg.Format = value
	case "template":
		cfg.Template = value
	case "includeContent":
		return setBool(&cfg.IncludeContent, key, value)
	case "maxContentBytes":
		return setInt(&cfg.MaxContentBytes, key, value)
	case "contextLines":
		return setInt(&cfg.ContextLines, key, value)
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
