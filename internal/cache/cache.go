// Package cache holds fetched backend data between screen loads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fleetconsole/internal/utils"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Fetch is a read-through helper: a hit is decoded, a miss calls load and
// stores its result. Cache failures degrade to a direct load.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var out T
	if c == nil {
		return load(ctx)
	}

	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		utils.LogEvent(utils.RequestIDFrom(ctx), "cache", "get", "key="+key+" err="+err.Error())
	}
	if ok {
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	}

	out, err = load(ctx)
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := c.Set(ctx, key, raw, ttl); err != nil {
			utils.LogEvent(utils.RequestIDFrom(ctx), "cache", "set", "key="+key+" err="+err.Error())
		}
	}
	return out, nil
}

var errUnknownDriver = errors.New("unknown cache driver")
