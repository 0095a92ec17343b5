package recordnote

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML configuration file. Values from the file
// sit beneath flags: a flag given explicitly on the command line wins.
type fileConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Port        string `yaml:"port"`
	RemoteURL   string `yaml:"remote_url"`
	ReadOnly    bool   `yaml:"read_only"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// applyFileConfig copies non-zero file values into config. Callers
// re-apply explicit flags afterwards so the precedence stays
// flags > file > defaults.
func applyFileConfig(config *Config, fc *fileConfig) {
	if fc.Driver != "" {
		config.Driver = fc.Driver
	}
	if fc.SQLitePath != "" {
		config.SQLitePath = fc.SQLitePath
	}
	if fc.PostgresDSN != "" {
		config.PostgresDSN = fc.PostgresDSN
	}
	if fc.Port != "" {
		config.ServerPort = fc.Port
	}
	if fc.RemoteURL != "" {
		config.RemoteURL = fc.RemoteURL
	}
	if fc.ReadOnly {
		config.ReadOnly = true
	}
}
