package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	t.Run("default config is usable out of the box", func(t *testing.T) {
		cfg := Default()

		assert.Equal(t, 64, cfg.Buffer.PoolSize)
		assert.Equal(t, 2, cfg.Buffer.LrukK)
	})

	t.Run("load overrides defaults from yaml", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := path.Join(dir, "config.yaml")

		yaml := "buffer:\n  pool_size: 128\n  lruk_k: 4\n"
		err := os.WriteFile(cfgPath, []byte(yaml), 0644)
		assert.NoError(t, err)

		cfg, err := Load(cfgPath)
		assert.NoError(t, err)
		assert.Equal(t, 128, cfg.Buffer.PoolSize)
		assert.Equal(t, 4, cfg.Buffer.LrukK)
	})

	t.Run("load fails on a missing file", func(t *testing.T) {
		_, err := Load(path.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
