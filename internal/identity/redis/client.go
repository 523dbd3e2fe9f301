// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// NewClient connects to Redis from a URL (redis://[user:pass@]host:port/db)
// and verifies the connection with a ping.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("REDIS_CONFIG_INVALID").
			With("operation", "parse redis url").
			Wrap(err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("REDIS_CONNECT_FAILED").
			With("operation", "ping redis").
			Wrap(err)
	}
	return client, nil
}
