package goSpace

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/goSpace/internal/keylock"
	"github.com/MrEthical07/goSpace/internal/notify"
	"github.com/MrEthical07/goSpace/internal/rate"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine from its collaborators.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	wallet WalletProvider
	store  StoreBackend
	sink   NotificationSink
	logger *slog.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithWallet sets the wallet provider. A nil provider, or one whose
// Detector reports unavailable, puts the Engine in StepNoWalletAvailable.
func (b *Builder) WithWallet(provider WalletProvider) *Builder {
	b.wallet = provider
	return b
}

// WithStore sets the store backend. It is required.
func (b *Builder) WithStore(store StoreBackend) *Builder {
	b.store = store
	return b
}

// WithNotificationSink sets the receiver of lifecycle notifications,
// usually the host transport.
func (b *Builder) WithNotificationSink(sink NotificationSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRedis sets the Redis client used by the per-caller write limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the store latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. The Engine
// still rejects every guarded operation until MarkLoaded is called.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("store backend required")
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:  cfg,
		logger:  logger.With("component", "gospace"),
		wallet:  b.wallet,
		store:   b.store,
		metrics: NewMetrics(cfg.Metrics),
		locks:   keylock.New(),
		spaces:  make(map[string]StoreSpace),
		step:    StepDisconnected,
	}

	if !walletAvailable(b.wallet) {
		engine.step = StepNoWalletAvailable
		engine.logger.Warn("goSpace: no compatible wallet provider, login disabled")
	}

	if b.sink != nil {
		if cfg.Notify.Enabled {
			engine.dispatcher = notify.NewDispatcher(notify.Config{
				Enabled:    true,
				BufferSize: cfg.Notify.BufferSize,
				DropIfFull: cfg.Notify.DropIfFull,
			}, b.sink)
			engine.notifier = engine.dispatcher
		} else {
			engine.notifier = b.sink
		}
	}

	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:    cfg.RateLimit.RedisPrefix,
			MaxWrites: cfg.RateLimit.MaxWrites,
			Window:    cfg.RateLimit.Window,
		})
	}

	b.built = true

	return engine, nil
}

func walletAvailable(provider WalletProvider) bool {
	if provider == nil {
		return false
	}
	if d, ok := provider.(Detector); ok {
		return d.Available()
	}
	return true
}
