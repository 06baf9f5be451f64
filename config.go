package main

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all client settings. Values come from coredefender.cfg.json
// in the config directory, overridable through COREDEFENDER_* environment
// variables; missing file means defaults.
type Config struct {
	APIBaseURL       string
	WSURL            string
	FPS              int
	Audio            bool
	SpritesPath      string
	DataDir          string
	LogFile          string
	PostEndSnapshots string // "ignore" or "apply"
}

// LoadConfig reads configuration from configDir and applies defaults.
func LoadConfig(configDir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("api.baseUrl", "http://localhost:5000")
	v.SetDefault("api.wsUrl", "ws://localhost:5000/ws")
	v.SetDefault("render.fps", DefaultFPS)
	v.SetDefault("render.spritesPath", "")
	v.SetDefault("audio.enabled", true)
	v.SetDefault("dataDir", ".")
	v.SetDefault("logFile", "coredefender.log")
	v.SetDefault("match.postEndSnapshots", "ignore")

	v.SetConfigName("coredefender.cfg")
	v.SetConfigType("json")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("COREDEFENDER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		APIBaseURL:       v.GetString("api.baseUrl"),
		WSURL:            v.GetString("api.wsUrl"),
		FPS:              v.GetInt("render.fps"),
		Audio:            v.GetBool("audio.enabled"),
		SpritesPath:      v.GetString("render.spritesPath"),
		DataDir:          v.GetString("dataDir"),
		LogFile:          v.GetString("logFile"),
		PostEndSnapshots: v.GetString("match.postEndSnapshots"),
	}
	return cfg, nil
}

// SnapshotPolicy maps the configured post-terminal snapshot mode
func (c *Config) SnapshotPolicy() SnapshotPolicy {
	if c.PostEndSnapshots == "apply" {
		return SnapshotApplyAfterEnd
	}
	return SnapshotIgnoreAfterEnd
}
