package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                int    `env:"PORT" envDefault:"8080"`
	DatabaseURL         string `env:"DATABASE_URL,required"`
	RedisURL            string `env:"REDIS_URL,required"`
	JWTSecret           string `env:"JWT_SECRET,required"`
	JWTExpirySeconds    int    `env:"JWT_EXPIRY_SECONDS" envDefault:"86400"`
	BcryptCost          int    `env:"BCRYPT_COST" envDefault:"10"`
	RateLimitPerMin     int    `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	StaleRideAfterHours int    `env:"STALE_RIDE_AFTER_HOURS" envDefault:"12"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpirySeconds) * time.Second
}

func (c *Config) StaleRideAfter() time.Duration {
	return time.Duration(c.StaleRideAfterHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if c.RedisURL != "" && len(c.RedisURL) >= 8 && c.RedisURL[:8] == "redis://" {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
