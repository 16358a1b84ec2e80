package config

import (
    "time"

    "github.com/spf13/viper"
)

// CacheConfig defines settings for the offering read cache and the
// response cache in front of the public listing routes.
// When Enabled is false or no Redis client is configured, lookups always
// go to the database.  Prefix namespaces the keys; TTL bounds staleness
// for anything the write path fails to invalidate.  Listings cannot be
// invalidated per offering, so they live for ListTTL only.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    ListTTL      time.Duration
    MaxBodyBytes int
}

func loadCacheConfig(v *viper.Viper) CacheConfig {
    c := CacheConfig{
        Enabled: v.GetBool("CACHE_ENABLED"),
        TTL:     v.GetDuration("CACHE_TTL"),
        Prefix:  v.GetString("CACHE_PREFIX"),
        ListTTL: v.GetDuration("CACHE_LIST_TTL"),

        MaxBodyBytes: v.GetInt("CACHE_MAX_BODY_BYTES"),
    }
    if c.TTL <= 0 {
        c.TTL = time.Second
    }
    if c.ListTTL <= 0 {
        c.ListTTL = time.Second
    }
    return c
}
