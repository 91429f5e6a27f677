// Package serverconfig loads the release server's configuration from
// built-in defaults, a YAML file, and environment variables, in that
// increasing order of precedence, via spf13/viper.
package serverconfig

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/patchgo/patchgo/pkg/contenthash"
	"github.com/patchgo/patchgo/pkg/release"
	"github.com/patchgo/patchgo/pkg/version"
)

// Config is the release server's full configuration surface.
type Config struct {
	Appname     string            `mapstructure:"appname"`
	ListenAddr  string            `mapstructure:"listen_addr"`
	ReleasesDir string            `mapstructure:"releases_dir"`
	KeysDir     string            `mapstructure:"keys_dir"`
	Versions    map[string]string `mapstructure:"versions"`

	StreamThresholdKB int `mapstructure:"stream_threshold_kb"`
	StreamBufferKB    int `mapstructure:"stream_buffer_kb"`
	ReadBufferKB      int `mapstructure:"read_buffer_kb"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig controls the zap logger built from this configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a Config with the recommended streaming defaults
// (threshold 1000 KB, stream buffer 256 KB, read buffer 128 KB) and an
// otherwise-empty release set.
func DefaultConfig() *Config {
	return &Config{
		Appname:           "app",
		ListenAddr:        "127.0.0.1:9443",
		ReleasesDir:       "./releases",
		KeysDir:           "./keys",
		Versions:          map[string]string{},
		StreamThresholdKB: 1000,
		StreamBufferKB:    256,
		ReadBufferKB:      128,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from cfgFile (if non-empty; otherwise searched
// for as "patchgo-server.yaml" in "." and "./configs"), then applies
// PATCHGO_-prefixed environment variable overrides, then defaults for
// anything still unset.
func Load(cfgFile string) (*Config, error) {
	defaults := DefaultConfig()

	viper.SetDefault("appname", defaults.Appname)
	viper.SetDefault("listen_addr", defaults.ListenAddr)
	viper.SetDefault("releases_dir", defaults.ReleasesDir)
	viper.SetDefault("keys_dir", defaults.KeysDir)
	viper.SetDefault("versions", defaults.Versions)
	viper.SetDefault("stream_threshold_kb", defaults.StreamThresholdKB)
	viper.SetDefault("stream_buffer_kb", defaults.StreamBufferKB)
	viper.SetDefault("read_buffer_kb", defaults.ReadBufferKB)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.format", defaults.Log.Format)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("patchgo-server")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PATCHGO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("serverconfig: failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("serverconfig: failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field-level constraints that are cheap to verify without
// touching the filesystem.
func (c *Config) Validate() error {
	if c.Appname == "" {
		return fmt.Errorf("serverconfig: appname cannot be empty")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("serverconfig: listen_addr cannot be empty")
	}
	if c.ReleasesDir == "" {
		return fmt.Errorf("serverconfig: releases_dir cannot be empty")
	}
	if c.StreamThresholdKB <= 0 || c.StreamBufferKB <= 0 || c.ReadBufferKB <= 0 {
		return fmt.Errorf("serverconfig: streaming parameters must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("serverconfig: log.level must be one of: debug, info, warn, error")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("serverconfig: log.format must be 'json' or 'console'")
	}

	for v, h := range c.Versions {
		if _, err := version.Parse(v); err != nil {
			return fmt.Errorf("serverconfig: invalid version key %q: %w", v, err)
		}
		if _, err := contenthash.Parse(h); err != nil {
			return fmt.Errorf("serverconfig: invalid hash for version %q: %w", v, err)
		}
	}

	return nil
}

// EnsureReleasesDir creates the releases directory if it doesn't exist.
func (c *Config) EnsureReleasesDir() error {
	return os.MkdirAll(c.ReleasesDir, 0755)
}

// StreamingParams converts the KB-denominated config fields to the
// byte-denominated parameters release.Registry expects.
func (c *Config) StreamingParams() release.StreamingParams {
	return release.StreamingParams{
		StreamThreshold: int64(c.StreamThresholdKB) * 1024,
		StreamBuffer:    c.StreamBufferKB * 1024,
		ReadBuffer:      c.ReadBufferKB * 1024,
	}
}

// VersionMap parses the string-keyed Versions field into the
// version.Version/contenthash.Sha256Hash mapping release.Config expects.
// Callers should only invoke this after Validate has succeeded.
func (c *Config) VersionMap() (map[version.Version]contenthash.Sha256Hash, error) {
	out := make(map[version.Version]contenthash.Sha256Hash, len(c.Versions))
	for vStr, hStr := range c.Versions {
		v, err := version.Parse(vStr)
		if err != nil {
			return nil, err
		}
		h, err := contenthash.Parse(hStr)
		if err != nil {
			return nil, err
		}
		out[v] = h
	}
	return out, nil
}
