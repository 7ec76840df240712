// Package config loads tunables for the buffer pool and LRU-K replacer from
// an optional YAML file, following the loader pattern used elsewhere in the
// retrieved corpus's storage engines.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the tunables an Index's buffer pool is built from.
type Config struct {
	Buffer struct {
		PoolSize int `mapstructure:"pool_size"`
		LrukK    int `mapstructure:"lruk_k"`
	} `mapstructure:"buffer"`
}

// Default returns the configuration used when no config path is supplied:
// a buffer pool of 64 frames and LRU-K's k set to 2.
func Default() Config {
	var cfg Config
	cfg.Buffer.PoolSize = 64
	cfg.Buffer.LrukK = 2
	return cfg
}

// Load reads a YAML config file at path, falling back to Default for any
// field left unset in the file.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}
