package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	BaseURL  string        `yaml:"base_url" env:"XKCD_BASE_URL" env-default:"https://xkcd.com"`
	CacheDir string        `yaml:"cache_dir" env:"XKCD_CACHE_DIR"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"XKCD_CACHE_TTL" env-default:"175200h"`
	Timeout  time.Duration `yaml:"timeout" env:"XKCD_TIMEOUT" env-default:"30s"`
}

// Load reads configPath when it is set and the environment otherwise.
// Environment variables override file values.
func Load(configPath string) (Config, error) {
	var cfg Config
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
