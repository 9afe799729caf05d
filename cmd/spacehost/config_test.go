package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
server:
  addr: ":9000"
  allowed_callers: [pluginX, ide]
  host_callers: [ide]
  rps: 5
  burst: 10
redis:
  prefix: demo
wallet:
  accounts: ["0xabc"]
tokens:
  secret: ${SPACEHOST_TEST_SECRET}
  ttl: 1h
session:
  auto_advance: false
timeouts:
  wallet: 30s
  store: 5s
write_limit:
  enabled: true
  max_writes: 10
  window: 30s
notify:
  async: false
metrics:
  enabled: true
  latency_histograms: true
`

func TestParseConfig(t *testing.T) {
	t.Setenv("SPACEHOST_TEST_SECRET", strings.Repeat("s", 32))

	cfg, err := parseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Tokens.Secret != strings.Repeat("s", 32) {
		t.Fatalf("unexpected server/tokens config: %+v %+v", cfg.Server, cfg.Tokens)
	}
	if cfg.Tokens.TTL != time.Hour || cfg.Timeouts.Store != 5*time.Second {
		t.Fatalf("durations not parsed: %+v %+v", cfg.Tokens, cfg.Timeouts)
	}
	if cfg.Metrics.Path != "/metrics" || cfg.Tokens.Issuer != "spacehost" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	ec := cfg.engineConfig()
	if ec.Session.AutoAdvance {
		t.Fatal("expected auto_advance false")
	}
	if !ec.Session.AutoOpenSpace {
		t.Fatal("unset auto_open_space must keep the default")
	}
	if ec.Timeouts.Wallet != 30*time.Second {
		t.Fatalf("unexpected wallet timeout %s", ec.Timeouts.Wallet)
	}
	if !ec.RateLimit.Enabled || ec.RateLimit.MaxWrites != 10 || ec.RateLimit.RedisPrefix != "demo:rl" {
		t.Fatalf("unexpected rate limit %+v", ec.RateLimit)
	}
	if ec.Notify.Enabled {
		t.Fatal("expected synchronous notifications")
	}
	if !ec.Metrics.Enabled || !ec.Metrics.EnableLatencyHistograms {
		t.Fatalf("unexpected metrics %+v", ec.Metrics)
	}
	if err := ec.Validate(); err != nil {
		t.Fatalf("engine config invalid: %v", err)
	}
	if rl := cfg.hostRateLimit(); rl.RPS != 5 || rl.Burst != 10 {
		t.Fatalf("unexpected host rate limit %+v", rl)
	}
}

func TestParseConfigErrors(t *testing.T) {
	secret := strings.Repeat("s", 32)
	tests := []struct {
		name string
		yaml string
	}{
		{"short secret", "tokens: {secret: short}\nwallet: {accounts: [\"0xabc\"]}"},
		{"no accounts", "tokens: {secret: " + secret + "}"},
		{"bad duration", "tokens: {secret: " + secret + ", ttl: forever}\nwallet: {accounts: [\"0xabc\"]}"},
		{"bad yaml", "tokens: [unterminated"},
		{"negative rps", "tokens: {secret: " + secret + "}\nwallet: {accounts: [\"0xabc\"]}\nserver: {rps: -1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseConfig([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestUnavailableWalletNeedsNoAccounts(t *testing.T) {
	cfg, err := parseConfig([]byte("tokens: {secret: " + strings.Repeat("s", 32) + "}\nwallet: {unavailable: true}"))
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if !cfg.Wallet.Unavailable {
		t.Fatal("expected unavailable wallet")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("SPACEHOST_TEST_SECRET", strings.Repeat("k", 40))
	path := filepath.Join(t.TempDir(), "spacehost.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if len(cfg.Server.AllowedCallers) != 2 {
		t.Fatalf("unexpected allowed callers %v", cfg.Server.AllowedCallers)
	}
	if len(cfg.Server.HostCallers) != 1 || cfg.Server.HostCallers[0] != "ide" {
		t.Fatalf("unexpected host callers %v", cfg.Server.HostCallers)
	}
}
