// Package config describes cacheaside engines in YAML or TOML and builds
// them, including the store clients they own.
package config

import (
	"fmt"
	"time"
)

// Store types.
const (
	StoreRedis     = "redis"
	StoreMemory    = "memory"
	StoreBigCache  = "bigcache"
	StoreRistretto = "ristretto"
	StoreOlric     = "olric"
)

// Config is the top-level document.
//
//	metrics:
//	  enable_prometheus: true
//	caches:
//	  - name: users
//	    prefix: app
//	    codec: msgpack
//	    store:
//	      type: redis
//	      redis:
//	        addrs: ["${REDIS_ADDR}"]
type Config struct {
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Caches  []CacheConfig `yaml:"caches" toml:"caches"`
}

type MetricsConfig struct {
	EnablePrometheus bool   `yaml:"enable_prometheus" toml:"enable_prometheus"`
	Namespace        string `yaml:"namespace" toml:"namespace"` // "" => cacheaside
}

// CacheConfig describes one engine. Exactly one of Store or Shards is set.
type CacheConfig struct {
	Name        string        `yaml:"name" toml:"name"`
	Prefix      string        `yaml:"prefix" toml:"prefix"`
	Codec       string        `yaml:"codec" toml:"codec"`
	NotFoundTTL Duration      `yaml:"not_found_ttl" toml:"not_found_ttl"`
	Placeholder string        `yaml:"placeholder" toml:"placeholder"`
	Store       *StoreConfig  `yaml:"store" toml:"store"`
	Shards      []ShardConfig `yaml:"shards" toml:"shards"`
}

type ShardConfig struct {
	Key    string      `yaml:"key" toml:"key"`
	Weight int         `yaml:"weight" toml:"weight"` // 0 => 1
	Store  StoreConfig `yaml:"store" toml:"store"`
}

type StoreConfig struct {
	Type      string          `yaml:"type" toml:"type"`
	Redis     RedisConfig     `yaml:"redis" toml:"redis"`
	Memory    MemoryConfig    `yaml:"memory" toml:"memory"`
	BigCache  BigCacheConfig  `yaml:"bigcache" toml:"bigcache"`
	Ristretto RistrettoConfig `yaml:"ristretto" toml:"ristretto"`
	Olric     OlricConfig     `yaml:"olric" toml:"olric"`
	Breaker   *BreakerConfig  `yaml:"breaker" toml:"breaker"`
}

// RedisConfig maps onto go-redis UniversalOptions: one address gives a
// plain client, several a cluster client, MasterName a sentinel client.
type RedisConfig struct {
	Addrs      []string `yaml:"addrs" toml:"addrs"`
	Username   string   `yaml:"username" toml:"username"`
	Password   string   `yaml:"password" toml:"password"`
	DB         int      `yaml:"db" toml:"db"`
	MasterName string   `yaml:"master_name" toml:"master_name"`
}

type MemoryConfig struct {
	Capacity int `yaml:"capacity" toml:"capacity"`
}

type BigCacheConfig struct {
	LifeWindow         Duration `yaml:"life_window" toml:"life_window"`
	CleanWindow        Duration `yaml:"clean_window" toml:"clean_window"`
	MaxEntriesInWindow int      `yaml:"max_entries_in_window" toml:"max_entries_in_window"`
	MaxEntrySize       int      `yaml:"max_entry_size" toml:"max_entry_size"`
	HardMaxCacheSizeMB int      `yaml:"hard_max_cache_size_mb" toml:"hard_max_cache_size_mb"`
}

type RistrettoConfig struct {
	NumCounters int64 `yaml:"num_counters" toml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost" toml:"max_cost"`
	BufferItems int64 `yaml:"buffer_items" toml:"buffer_items"`
}

type OlricConfig struct {
	Addrs []string `yaml:"addrs" toml:"addrs"`
	DMap  string   `yaml:"dmap" toml:"dmap"`
}

type BreakerConfig struct {
	FailureThreshold uint32   `yaml:"failure_threshold" toml:"failure_threshold"`
	OpenDuration     Duration `yaml:"open_duration" toml:"open_duration"`
	HalfOpenRequests uint32   `yaml:"half_open_requests" toml:"half_open_requests"`
}

// Duration reads Go duration strings ("10s", "1m30s") from either format.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }
