package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names a config file when no -config flag is given.
const EnvConfig = "TOPDOWN_CONFIG"

// searchNames are tried in the working directory, in order.
var searchNames = []string{"topdown.yaml", "config.yaml"}

// Load builds the config from defaults, then the first config file found,
// then flags, and validates the result. The file comes from -config, then
// $TOPDOWN_CONFIG, then the search path.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing file on the search path, or "".
func findConfigFile() string {
	candidates := append([]string(nil), searchNames...)
	candidates = append(candidates, filepath.Join(ConfigDir(), "config.yaml"))

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for topdown.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Topdown")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Topdown")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "topdown")
	}
	return filepath.Join(home, ".config", "topdown")
}

// loadFromFile merges a YAML file over cfg. Keys the config does not know
// are errors, so a misspelled setting is not silently ignored. An empty
// file changes nothing.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
