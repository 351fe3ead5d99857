package certs

import (
	"context"

	"github.com/postalsys/certs/core/acmeaccount"
	"github.com/postalsys/certs/core/config"
	redisdb "github.com/postalsys/certs/integration/database/redis"
)

// NewFromEnv constructs the coordinator from environment configuration: the
// shared KV client is connected via the redis integration (REDIS_URL and
// friends), and the coordinator and account settings come from their
// env-tagged Config types. Options apply on top of the loaded configuration.
func NewFromEnv(ctx context.Context, opts ...Option) (*Service, error) {
	var redisCfg redisdb.Config
	if err := config.Load(&redisCfg); err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	var accountCfg acmeaccount.Config
	if err := config.Load(&accountCfg); err != nil {
		return nil, err
	}

	client, err := redisdb.Connect(ctx, redisCfg)
	if err != nil {
		return nil, err
	}

	return New(client, cfg, accountCfg, opts...)
}
