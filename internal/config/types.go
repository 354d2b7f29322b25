package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds every option the relay reads at boot.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Identity IdentityConfig `koanf:"identity"`
}

// ServerConfig collects the bootstrap knobs owned by the lifecycle agent.
type ServerConfig struct {
	Listen  ListenConfig      `koanf:"listen"`
	Logging LoggingConfig     `koanf:"logging"`
	Cache   ServerCacheConfig `koanf:"cache"`
}

// ListenConfig instructs the HTTP listener about bind address and port.
type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// LoggingConfig expresses log level, format, and correlation ID wiring.
type LoggingConfig struct {
	Level             string `koanf:"level"`
	Format            string `koanf:"format"`
	CorrelationHeader string `koanf:"correlationHeader"`
}

type ServerCacheConfig struct {
	Backend      string                 `koanf:"backend"`
	TTLSeconds   int                    `koanf:"ttlSeconds"`
	SweepSeconds int                    `koanf:"sweepSeconds"`
	Redis        ServerRedisCacheConfig `koanf:"redis"`
}

type ServerRedisCacheConfig struct {
	Address  string               `koanf:"address"`
	Username string               `koanf:"username"`
	Password string               `koanf:"password"`
	DB       int                  `koanf:"db"`
	TLS      ServerRedisTLSConfig `koanf:"tls"`
}

type ServerRedisTLSConfig struct {
	Enabled bool   `koanf:"enabled"`
	CAFile  string `koanf:"caFile"`
}

// UpstreamConfig points the relay at the Ziqni platform. PlatformBaseURL serves
// the member-token and spaces endpoints; QueryBaseURL serves the
// competitions/contests query endpoints and has no safe default.
type UpstreamConfig struct {
	PlatformBaseURL string `koanf:"platformBaseURL"`
	QueryBaseURL    string `koanf:"queryBaseURL"`
	TimeoutSeconds  int    `koanf:"timeoutSeconds"`
}

// IdentityConfig carries the password-grant credentials used only by the
// standalone gettoken utility, never by the request path.
type IdentityConfig struct {
	TokenURL string `koanf:"tokenURL"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// TTL returns the per-entry result cache lifetime.
func (c ServerCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SweepInterval returns how often the memory backend reclaims expired entries.
func (c ServerCacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// Timeout returns the deadline applied to each upstream call.
func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate enforces invariants that keep the runtime predictable before serving traffic.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if c.Server.Listen.Port <= 0 || c.Server.Listen.Port > 65535 {
		return fmt.Errorf("config: listen.port invalid: %d", c.Server.Listen.Port)
	}
	if c.Server.Cache.TTLSeconds < 0 {
		return fmt.Errorf("config: server.cache.ttlSeconds invalid: %d", c.Server.Cache.TTLSeconds)
	}
	if c.Server.Cache.SweepSeconds < 0 {
		return fmt.Errorf("config: server.cache.sweepSeconds invalid: %d", c.Server.Cache.SweepSeconds)
	}
	backend := strings.TrimSpace(strings.ToLower(c.Server.Cache.Backend))
	switch backend {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(c.Server.Cache.Redis.Address) == "" {
			return errors.New("config: server.cache.redis.address required for redis backend")
		}
	default:
		return fmt.Errorf("config: server.cache.backend unsupported: %s", c.Server.Cache.Backend)
	}
	if err := validateBaseURL("upstream.platformBaseURL", c.Upstream.PlatformBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("upstream.queryBaseURL", c.Upstream.QueryBaseURL); err != nil {
		return err
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("config: upstream.timeoutSeconds invalid: %d", c.Upstream.TimeoutSeconds)
	}
	return nil
}

// DefaultConfig returns the baseline values that align with the deployed relay defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen: ListenConfig{
				Address: "0.0.0.0",
				Port:    3000,
			},
			Logging: LoggingConfig{
				Level:             "info",
				Format:            "json",
				CorrelationHeader: "X-Request-ID",
			},
			Cache: ServerCacheConfig{
				Backend:      "memory",
				TTLSeconds:   1800,
				SweepSeconds: 300,
			},
		},
		Upstream: UpstreamConfig{
			PlatformBaseURL: "https://api.ziqni.com",
			TimeoutSeconds:  30,
		},
		Identity: IdentityConfig{
			TokenURL: "https://identity.ziqni.com/realms/ziqni/protocol/openid-connect/token",
		},
	}
}

func validateBaseURL(field, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("config: %s required", field)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("config: %s invalid: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("config: %s must be http or https: %s", field, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("config: %s missing host: %s", field, raw)
	}
	return nil
}
