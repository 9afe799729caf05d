package main

import (
	"fmt"
	"os"
	"regexp"
	"time"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/MrEthical07/goSpace/host"
	"gopkg.in/yaml.v3"
)

// fileConfig is the spacehost YAML file.
type fileConfig struct {
	Server    serverConfig    `yaml:"server"`
	Redis     redisConfig     `yaml:"redis"`
	Wallet    walletConfig    `yaml:"wallet"`
	Tokens    tokenConfig     `yaml:"tokens"`
	Session   sessionConfig   `yaml:"session"`
	Namespace namespaceConfig `yaml:"namespace"`
	Timeouts  timeoutConfig   `yaml:"timeouts"`
	WriteRate writeRateConfig `yaml:"write_limit"`
	Notify    notifyConfig    `yaml:"notify"`
	Metrics   metricsConfig   `yaml:"metrics"`
	Logging   loggingConfig   `yaml:"logging"`
}

type serverConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedCallers []string `yaml:"allowed_callers"`
	HostCallers    []string `yaml:"host_callers"`
	RPS            float64  `yaml:"rps"`
	Burst          int      `yaml:"burst"`
}

// redisConfig with an empty Addr starts an in-process miniredis.
type redisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type walletConfig struct {
	Accounts    []string `yaml:"accounts"`
	Unavailable bool     `yaml:"unavailable"`
}

type tokenConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"-"`

	TTLRaw string `yaml:"ttl"`
}

type sessionConfig struct {
	AutoAdvance   *bool `yaml:"auto_advance"`
	AutoOpenSpace *bool `yaml:"auto_open_space"`
}

type namespaceConfig struct {
	Prefix          string `yaml:"prefix"`
	MaxCallerLength int    `yaml:"max_caller_length"`
}

type timeoutConfig struct {
	Wallet time.Duration `yaml:"-"`
	Store  time.Duration `yaml:"-"`

	WalletRaw string `yaml:"wallet"`
	StoreRaw  string `yaml:"store"`
}

type writeRateConfig struct {
	Enabled   bool          `yaml:"enabled"`
	MaxWrites int           `yaml:"max_writes"`
	Window    time.Duration `yaml:"-"`

	WindowRaw string `yaml:"window"`
}

type notifyConfig struct {
	Async      *bool `yaml:"async"`
	BufferSize int   `yaml:"buffer_size"`
}

type metricsConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Path              string `yaml:"path"`
	LatencyHistograms bool   `yaml:"latency_histograms"`
}

type loggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// loadConfig reads path, expands ${VAR} references and parses durations.
func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*fileConfig, error) {
	expanded := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	var cfg fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *fileConfig) parseDurations() error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"tokens.ttl", c.Tokens.TTLRaw, &c.Tokens.TTL},
		{"timeouts.wallet", c.Timeouts.WalletRaw, &c.Timeouts.Wallet},
		{"timeouts.store", c.Timeouts.StoreRaw, &c.Timeouts.Store},
		{"write_limit.window", c.WriteRate.WindowRaw, &c.WriteRate.Window},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

func (c *fileConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8545"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "gs"
	}
	if c.Tokens.Issuer == "" {
		c.Tokens.Issuer = "spacehost"
	}
	if c.Tokens.TTL == 0 {
		c.Tokens.TTL = 24 * time.Hour
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func (c *fileConfig) validate() error {
	if len(c.Tokens.Secret) < 32 {
		return fmt.Errorf("tokens.secret must be at least 32 bytes")
	}
	if !c.Wallet.Unavailable && len(c.Wallet.Accounts) == 0 {
		return fmt.Errorf("wallet.accounts is required unless wallet.unavailable is set")
	}
	if c.Server.RPS < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server.rps and server.burst must be >= 0")
	}
	return nil
}

// engineConfig maps the file onto goSpace.Config; unset fields keep
// goSpace.DefaultConfig values.
func (c *fileConfig) engineConfig() goSpace.Config {
	cfg := goSpace.DefaultConfig()

	if c.Session.AutoAdvance != nil {
		cfg.Session.AutoAdvance = *c.Session.AutoAdvance
	}
	if c.Session.AutoOpenSpace != nil {
		cfg.Session.AutoOpenSpace = *c.Session.AutoOpenSpace
	}
	if c.Namespace.Prefix != "" {
		cfg.Namespace.Prefix = c.Namespace.Prefix
	}
	if c.Namespace.MaxCallerLength > 0 {
		cfg.Namespace.MaxCallerLength = c.Namespace.MaxCallerLength
	}
	if c.Timeouts.Wallet > 0 {
		cfg.Timeouts.Wallet = c.Timeouts.Wallet
	}
	if c.Timeouts.Store > 0 {
		cfg.Timeouts.Store = c.Timeouts.Store
	}
	if c.WriteRate.Enabled {
		cfg.RateLimit.Enabled = true
		if c.WriteRate.MaxWrites > 0 {
			cfg.RateLimit.MaxWrites = c.WriteRate.MaxWrites
		}
		if c.WriteRate.Window > 0 {
			cfg.RateLimit.Window = c.WriteRate.Window
		}
		cfg.RateLimit.RedisPrefix = c.Redis.Prefix + ":rl"
	}
	if c.Notify.Async != nil {
		cfg.Notify.Enabled = *c.Notify.Async
	}
	if c.Notify.BufferSize > 0 {
		cfg.Notify.BufferSize = c.Notify.BufferSize
	}
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled && c.Metrics.LatencyHistograms

	return cfg
}

func (c *fileConfig) hostRateLimit() host.RateLimitConfig {
	return host.RateLimitConfig{RPS: c.Server.RPS, Burst: c.Server.Burst}
}
