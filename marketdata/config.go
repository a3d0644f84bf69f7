package marketdata

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config locates the price history on disk.
type Config struct {
	// RootDir holds one <TICKER>.csv per instrument.
	RootDir string `mapstructure:"root_dir"`
	// ScratchDir receives derived artifacts such as exported simulations.
	ScratchDir string `mapstructure:"scratch_dir"`
	// CacheTTL bounds how long a parsed history file is reused before the
	// store re-reads it from disk.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LoadConfig reads the store configuration from an optional YAML file and
// the environment. Environment variables use the FINPY_ prefix, so
// FINPY_ROOT_DIR overrides root_dir. An empty path loads defaults and
// environment only.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("root_dir", "data")
	v.SetDefault("scratch_dir", filepath.Join(os.TempDir(), "finpy"))
	v.SetDefault("cache_ttl", 12*time.Hour)

	v.SetEnvPrefix("FINPY")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
