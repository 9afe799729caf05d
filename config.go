package goSpace

import (
	"errors"
	"strings"
	"time"
)

// Config defines the runtime configuration of an Engine.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session   SessionConfig
	Namespace NamespaceConfig
	Timeouts  TimeoutConfig
	RateLimit RateLimitConfig
	Notify    NotifyConfig
	Metrics   MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the login state machine.
type SessionConfig struct {
	// AutoAdvance makes a single Login call continue from WalletConnected to
	// Authenticated. When false every Login performs exactly one step.
	AutoAdvance bool
	// AutoOpenSpace opens the calling plugin's namespace as part of Login
	// when Login is made on behalf of an external caller.
	AutoOpenSpace bool
}

/*
====================================
NAMESPACE CONFIG
====================================
*/

// NamespaceConfig controls namespace key derivation.
type NamespaceConfig struct {
	// Prefix is joined with the caller identity as "<Prefix>-<caller>".
	Prefix string
	// MaxCallerLength bounds the caller identity accepted by the engine.
	MaxCallerLength int
}

/*
====================================
TIMEOUT CONFIG
====================================
*/

// TimeoutConfig bounds calls into external collaborators. Zero disables the bound.
type TimeoutConfig struct {
	Wallet time.Duration
	Store  time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig caps Set*Value calls per caller in a fixed window.
// It requires a Redis client on the Builder.
type RateLimitConfig struct {
	Enabled     bool
	MaxWrites   int
	Window      time.Duration
	RedisPrefix string
}

/*
====================================
NOTIFY / METRICS CONFIG
====================================
*/

// NotifyConfig controls the asynchronous notification dispatcher.
type NotifyConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the store latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			AutoAdvance:   true,
			AutoOpenSpace: true,
		},
		Namespace: NamespaceConfig{
			Prefix:          "space",
			MaxCallerLength: 128,
		},
		Timeouts: TimeoutConfig{
			Wallet: 2 * time.Minute,
			Store:  30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:     false,
			MaxWrites:   120,
			Window:      time.Minute,
			RedisPrefix: "gs:rl",
		},
		Notify: NotifyConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	prefix := strings.TrimSpace(c.Namespace.Prefix)
	if prefix == "" {
		return errors.New("Namespace Prefix must not be empty")
	}
	if prefix != c.Namespace.Prefix || strings.ContainsAny(prefix, ": \t\n") {
		return errors.New("Namespace Prefix must not contain whitespace or ':'")
	}
	if c.Namespace.MaxCallerLength <= 0 {
		return errors.New("Namespace MaxCallerLength must be > 0")
	}

	if c.Timeouts.Wallet < 0 {
		return errors.New("Timeouts Wallet must be >= 0")
	}
	if c.Timeouts.Store < 0 {
		return errors.New("Timeouts Store must be >= 0")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxWrites <= 0 {
			return errors.New("RateLimit MaxWrites must be > 0")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0")
		}
		if strings.TrimSpace(c.RateLimit.RedisPrefix) == "" {
			return errors.New("RateLimit RedisPrefix must not be empty")
		}
	}

	if c.Notify.Enabled && c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
