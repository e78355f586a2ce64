package offcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetAs decodes the fresh entry stored under key into a T.
// An entry that does not decode into T is reported as absent.
func GetAs[T any](c Cache, key string) (T, bool) {
	var out T

	raw, ok := c.Get(key)
	if !ok {
		return out, false
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}

	return out, true
}

// Fetch is the typed form of FetchWithFallback. When the network served the
// call, the value returned by fetch is handed back as is; otherwise the cached
// entry is decoded into a T.
func Fetch[T any](ctx context.Context, c Cache, key string, fetch func(context.Context) (T, error), ttl time.Duration) (T, *FetchResult, error) {
	var fresh T

	res, err := c.FetchWithFallback(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		fresh = v

		return v, nil
	}, ttl)

	if err != nil {
		var zero T

		return zero, nil, err
	}

	if res.Source == SourceNetwork {
		return fresh, res, nil
	}

	var out T
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return out, res, fmt.Errorf("%w: decoding key '%s': %v", ErrStoreRead, key, err)
	}

	return out, res, nil
}
