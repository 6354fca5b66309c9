package config

import (
	"fmt"
	"strings"
)

var validStoreTypes = map[string]bool{
	StoreRedis:     true,
	StoreMemory:    true,
	StoreBigCache:  true,
	StoreRistretto: true,
	StoreOlric:     true,
}

// ValidationError collects every problem found in a Config.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "config validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("config validation failed: %s", e.Errors[0])
	}
	return fmt.Sprintf("config validation failed with %d errors:\n  - %s",
		len(e.Errors), strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// ToError returns nil when nothing was collected.
func (e *ValidationError) ToError() error {
	if len(e.Errors) > 0 {
		return e
	}
	return nil
}

func (c *Config) Validate() error {
	var ve ValidationError
	if len(c.Caches) == 0 {
		ve.Addf("caches: at least one cache is required")
	}

	names := map[string]bool{}
	for i, cc := range c.Caches {
		at := fmt.Sprintf("caches[%d]", i)
		if cc.Name == "" {
			ve.Addf("%s.name: required", at)
		} else if names[cc.Name] {
			ve.Addf("%s.name: duplicate %q", at, cc.Name)
		}
		names[cc.Name] = true

		if cc.NotFoundTTL < 0 {
			ve.Addf("%s.not_found_ttl: must not be negative", at)
		}

		switch {
		case cc.Store != nil && len(cc.Shards) > 0:
			ve.Addf("%s: store and shards are mutually exclusive", at)
		case cc.Store == nil && len(cc.Shards) == 0:
			ve.Addf("%s: one of store or shards is required", at)
		case cc.Store != nil:
			validateStore(&ve, at+".store", cc.Store)
		default:
			keys := map[string]bool{}
			for j, sh := range cc.Shards {
				sat := fmt.Sprintf("%s.shards[%d]", at, j)
				if sh.Key == "" {
					ve.Addf("%s.key: required", sat)
				} else if keys[sh.Key] {
					ve.Addf("%s.key: duplicate %q", sat, sh.Key)
				}
				keys[sh.Key] = true
				if sh.Weight < 0 {
					ve.Addf("%s.weight: must not be negative", sat)
				}
				validateStore(&ve, sat+".store", &sh.Store)
			}
		}
	}
	return ve.ToError()
}

func validateStore(ve *ValidationError, at string, sc *StoreConfig) {
	if !validStoreTypes[sc.Type] {
		ve.Addf("%s.type: unknown store type %q", at, sc.Type)
		return
	}
	switch sc.Type {
	case StoreRedis:
		if len(sc.Redis.Addrs) == 0 {
			ve.Addf("%s.redis.addrs: at least one address is required", at)
		}
	case StoreOlric:
		if len(sc.Olric.Addrs) == 0 {
			ve.Addf("%s.olric.addrs: at least one address is required", at)
		}
		if sc.Olric.DMap == "" {
			ve.Addf("%s.olric.dmap: required", at)
		}
	case StoreRistretto:
		r := sc.Ristretto
		if r.NumCounters <= 0 || r.MaxCost <= 0 || r.BufferItems <= 0 {
			ve.Addf("%s.ristretto: num_counters, max_cost and buffer_items must be positive", at)
		}
	}
	if sc.Breaker != nil && sc.Breaker.OpenDuration < 0 {
		ve.Addf("%s.breaker.open_duration: must not be negative", at)
	}
}
