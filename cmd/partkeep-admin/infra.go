package main

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/partkeep/partkeep/config"
	"github.com/partkeep/partkeep/internal/bootstrap"
)

var errRedisNotConfigured = errors.New("redis not configured")

// connectSessionStore returns a Redis client for the session keyspace.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectSessionStore(cmdCtx *commandContext) (redis.UniversalClient, error) {
	if !hasRedisConfig(&cmdCtx.Config.Redis) {
		return nil, errRedisNotConfigured
	}

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}
