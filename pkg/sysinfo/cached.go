package sysinfo

import (
	"context"

	"gitlab.com/tinyland/lab/phosphor/pkg/cache"
)

// factsCacheKey versions the cached document layout.
const factsCacheKey = "sysinfo/facts/v1"

// CollectCached returns facts from store when a fresh entry exists and
// otherwise collects and stores them. Overrides are applied after the
// cache so that changing them never requires invalidation. The boolean
// reports a cache hit. A nil store always collects.
func CollectCached(ctx context.Context, store *cache.Store, overrides map[string]string) (Facts, bool) {
	if store != nil {
		if f, ok := cache.GetTyped[Facts](store, factsCacheKey); ok {
			return f.fill().WithOverrides(overrides), true
		}
	}

	f := Collect(ctx, nil)
	if store != nil {
		// A failed write only costs a fresh collection on the next start.
		_ = cache.PutTyped(store, factsCacheKey, f)
	}
	return f.WithOverrides(overrides), false
}
