package rtr

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cuemby/fnerd-orchestrator/pkg/metrics"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// hostRegistry is a bounded-TTL cache in front of host discovery,
// keyed by hostname. Reads and writes take the map's RWMutex (shared
// for reads); concurrent discovery of one hostname is coalesced into a
// single call through singleflight.
type hostRegistry struct {
	ttl   time.Duration
	mu    sync.RWMutex
	byKey map[string]registryEntry
	group singleflight.Group
}

type registryEntry struct {
	host     types.Host
	cachedAt time.Time
}

func newHostRegistry(ttl time.Duration) *hostRegistry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &hostRegistry{
		ttl:   ttl,
		byKey: make(map[string]registryEntry),
	}
}

// resolve returns the cached host if fresh, otherwise calls discover
// exactly once per hostname even under concurrent callers, via
// singleflight coalescing.
func (r *hostRegistry) resolve(ctx context.Context, hostname string, forceRefresh bool, discover func(context.Context, string) (types.Host, error)) (types.Host, error) {
	if !forceRefresh {
		if host, ok := r.lookup(hostname); ok {
			metrics.HostRegistryHits.Inc()
			return host, nil
		}
	}
	metrics.HostRegistryMisses.Inc()

	v, err, _ := r.group.Do(hostname, func() (interface{}, error) {
		// Re-check under the singleflight key in case a concurrent
		// caller just populated the cache while we waited to enter.
		if !forceRefresh {
			if host, ok := r.lookup(hostname); ok {
				return host, nil
			}
		}
		host, err := discover(ctx, hostname)
		if err != nil {
			return types.Host{}, err
		}
		r.store(hostname, host)
		return host, nil
	})
	if err != nil {
		return types.Host{}, err
	}
	return v.(types.Host), nil
}

func (r *hostRegistry) lookup(hostname string) (types.Host, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byKey[hostname]
	if !ok || time.Since(entry.cachedAt) > r.ttl {
		return types.Host{}, false
	}
	return entry.host, true
}

func (r *hostRegistry) store(hostname string, host types.Host) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[hostname] = registryEntry{host: host, cachedAt: time.Now()}
}
