// Command spacehost serves a goSpace engine to plugins over JSON-RPC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/MrEthical07/goSpace/callertoken"
	"github.com/MrEthical07/goSpace/host"
	"github.com/MrEthical07/goSpace/metrics/export/prometheus"
	"github.com/MrEthical07/goSpace/space"
	"github.com/MrEthical07/goSpace/wallet"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		configPath = flag.String("config", "spacehost.yaml", "path to the YAML config file")
		addr       = flag.String("addr", "", "listen address; overrides server.addr")
		issueToken = flag.String("issue-token", "", "print a caller token for the given caller and exit")
		autoLoaded = flag.Bool("auto-loaded", true, "fire the load gate at startup instead of waiting for POST /loaded")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	tokens, err := callertoken.NewManager(callertoken.Config{
		TTL:           cfg.Tokens.TTL,
		SigningMethod: callertoken.MethodHS256,
		PrivateKey:    []byte(cfg.Tokens.Secret),
		Issuer:        cfg.Tokens.Issuer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating token manager: %v\n", err)
		os.Exit(1)
	}

	if *issueToken != "" {
		tok, err := tokens.Issue(*issueToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: issuing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, tokens, *autoLoaded); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *fileConfig, tokens *callertoken.Manager, autoLoaded bool) error {
	logger := setupLogger(cfg.Logging)

	client, cleanup, err := openRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var provider goSpace.WalletProvider = wallet.NewStatic(cfg.Wallet.Accounts...)
	if cfg.Wallet.Unavailable {
		provider = wallet.Unavailable{}
	}

	broadcaster := host.NewBroadcaster(logger)
	defer broadcaster.Close()

	engine, err := goSpace.New().
		WithConfig(cfg.engineConfig()).
		WithWallet(provider).
		WithStore(space.NewStore(client, cfg.Redis.Prefix)).
		WithRedis(client).
		WithNotificationSink(broadcaster).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	server, err := host.NewServer(host.Config{
		Engine:         engine,
		Broadcaster:    broadcaster,
		Parser:         tokens,
		AllowedCallers: cfg.Server.AllowedCallers,
		HostCallers:    cfg.Server.HostCallers,
		RateLimit:      cfg.hostRateLimit(),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("creating host server: %w", err)
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, prometheus.NewPrometheusExporter(engine).Handler())
	}
	mux.Handle("/", server.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if autoLoaded {
		engine.MarkLoaded()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("spacehost listening", "addr", cfg.Server.Addr, "metrics", cfg.Metrics.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Close streams first so Shutdown does not wait on /events handlers.
	broadcaster.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRedis connects to cfg.Addr, or starts miniredis when it is empty.
func openRedis(cfg redisConfig, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if cfg.Addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("starting miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Warn("no redis address configured, using in-process miniredis", "addr", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	logger.Info("using redis", "addr", cfg.Addr)
	return client, func() { _ = client.Close() }, nil
}

func setupLogger(cfg loggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
