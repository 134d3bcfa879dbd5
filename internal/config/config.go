package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds launcher configuration.
type Config struct {
	// DataDir is the working directory serve-d is installed into.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel controls the diagnostic log (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LSP carries the user override for the language server location.
	LSP Options `mapstructure:"lsp"`
}

// Options is the recognized shape of the `lsp` options block. A non-empty
// ServerPath bypasses the fetch/install pipeline entirely; ServerArgs are
// appended to the launcher's base argument list either way. Missing fields
// default to their zero values.
type Options struct {
	ServerPath string   `mapstructure:"server_path" json:"serverPath"`
	ServerArgs []string `mapstructure:"server_args" json:"serverArgs"`
}

// initializationOptions is the wire shape of an editor's initialization
// payload: the lsp block nested inside an otherwise opaque object.
type initializationOptions struct {
	LSP Options `json:"lsp"`
}

// OptionsFromJSON extracts the lsp options block from a raw initialization
// payload. An empty or absent payload yields zero Options; only actual
// JSON syntax errors are reported.
func OptionsFromJSON(raw json.RawMessage) (Options, error) {
	if len(raw) == 0 {
		return Options{}, nil
	}
	var parsed initializationOptions
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Options{}, fmt.Errorf("config: parse initialization options: %w", err)
	}
	return parsed.LSP, nil
}

// Load reads configuration from the launcher config file and environment.
// Prefers ~/.served-launcher, falling back to the current directory when
// the home directory is unavailable or not writable.
func Load() (*Config, error) {
	configDir := resolveConfigDir()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults(configDir)

	viper.SetEnvPrefix("SERVED_LAUNCHER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has a default.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}

func resolveConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".served-launcher"
	}
	dir := filepath.Join(home, ".served-launcher")
	if os.MkdirAll(dir, 0o755) != nil {
		return ".served-launcher"
	}
	return dir
}

func setDefaults(configDir string) {
	viper.SetDefault("data_dir", filepath.Join(configDir, "serve-d"))
	viper.SetDefault("log_level", "info")
	viper.SetDefault("lsp.server_path", "")
	viper.SetDefault("lsp.server_args", []string{})
}
