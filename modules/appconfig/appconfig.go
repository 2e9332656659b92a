// Package appconfig assembles the environment-driven configuration for
// examples/petstore/main.go: the API-key/cursor signer, the Redis client
// backing the cache, locker and sliding-window counter, the Postgres pool,
// the REST rate-limit policy, and the OTel exporter.
package appconfig

import (
	"fmt"

	"github.com/ngnhng/oapi-engine/modules/db/postgres"
	"github.com/ngnhng/oapi-engine/modules/db/redis"
	"github.com/ngnhng/oapi-engine/modules/hmac"
	"github.com/ngnhng/oapi-engine/modules/middleware/ratelimit"
	"github.com/ngnhng/oapi-engine/modules/telemetry"

	"github.com/caarlos0/env/v11"
)

// devHMACSecret is the insecure placeholder used by local development and
// must never reach validate() with Env set to anything but "dev".
const devHMACSecret = "dev-secret"

type Config struct {
	Env string `env:"ENV" envDefault:"dev"`

	// --- core infra ----
	HMAC  hmac.HMACConfig   `envPrefix:"HMAC_"`
	Redis redis.RedisConfig `envPrefix:"REDIS_"`
	// Postgres's own field tags already carry the POSTGRES_ prefix, so
	// no envPrefix is applied here.
	Postgres postgres.PostgresConnectionConfig

	// --- middlewares ----
	RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`

	// --- otel ----
	// since it has special naming conventions, we do not use prefix here
	Otel telemetry.Config
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate rejects configurations that are fine for local development but
// unsafe to run with: an HMAC secret used to sign both API keys and
// pagination cursors must not be the dev placeholder outside Env=="dev".
func validate(c *Config) error {
	if c.Env != "dev" && c.HMAC.Secret == devHMACSecret {
		return fmt.Errorf("appconfig: HMAC_SECRET must be overridden when ENV=%q", c.Env)
	}
	return nil
}
