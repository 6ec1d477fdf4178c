// Package config loads locator configuration from a JSON file backend with
// LOCATOR_* environment overrides.
package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server  ServerConfig
	Sources SourcesConfig
	Storage StorageConfig
	API     APIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type SourcesConfig struct {
	FBOPBaseURL string
	TDCJBaseURL string

	// QueryTimeout bounds each source's network exchange per query,
	// parsed as a Go duration string.
	QueryTimeout string
}

type StorageConfig struct {
	DataDir string
}

type APIConfig struct {
	// Token guards the search endpoints when non-empty.
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4600,
			MCPPort: 4601,
		},
		Sources: SourcesConfig{
			FBOPBaseURL:  "https://www.bop.gov",
			TDCJBaseURL:  "https://offender.tdcj.texas.gov",
			QueryTimeout: "10s",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend
// ($XDG_CONFIG_HOME/locator/config.json) and applies LOCATOR_* environment
// overrides on top.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "locator-data"
		}
	}
	return filepath.Join(dir, "locator")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "locator", "config.json")
}
