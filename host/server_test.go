package host

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/MrEthical07/goSpace/callertoken"
	"github.com/MrEthical07/goSpace/space"
	"github.com/MrEthical07/goSpace/wallet"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testHost struct {
	srv    *httptest.Server
	engine *goSpace.Engine
	tokens *callertoken.Manager
	bc     *Broadcaster
	wallet *wallet.Static
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type hostOptions struct {
	rateLimit   RateLimitConfig
	allowed     []string
	hostCallers []string
	wrapStore   func(goSpace.StoreBackend) goSpace.StoreBackend
}

func newTestHost(t *testing.T, rl RateLimitConfig, allowed ...string) *testHost {
	t.Helper()
	return newTestHostWith(t, hostOptions{rateLimit: rl, allowed: allowed, hostCallers: []string{"ide"}})
}

func newTestHostWith(t *testing.T, opts hostOptions) *testHost {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bc := NewBroadcaster(quietLogger())
	w := wallet.NewStatic("0xabc")
	cfg := goSpace.DefaultConfig()
	cfg.Notify.Enabled = false

	var store goSpace.StoreBackend = space.NewStore(rdb, "gs")
	if opts.wrapStore != nil {
		store = opts.wrapStore(store)
	}

	engine, err := goSpace.New().
		WithConfig(cfg).
		WithWallet(w).
		WithStore(store).
		WithNotificationSink(bc).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tokens, err := callertoken.NewManager(callertoken.Config{
		TTL:           time.Hour,
		SigningMethod: callertoken.MethodHS256,
		PrivateKey:    testSecret,
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	server, err := NewServer(Config{
		Engine:         engine,
		Broadcaster:    bc,
		Parser:         tokens,
		AllowedCallers: opts.allowed,
		HostCallers:    opts.hostCallers,
		RateLimit:      opts.rateLimit,
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		bc.Close()
		srv.Close()
		engine.Close()
	})
	return &testHost{srv: srv, engine: engine, tokens: tokens, bc: bc, wallet: w}
}

func (h *testHost) token(t *testing.T, caller string) string {
	t.Helper()
	tok, err := h.tokens.Issue(caller)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (h *testHost) post(t *testing.T, caller, path string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if caller != "" {
		req.Header.Set("Authorization", "Bearer "+h.token(t, caller))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

type rpcReply struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func (h *testHost) call(t *testing.T, caller, method string, params any) rpcReply {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	body, _ := json.Marshal(req)
	resp := h.post(t, caller, "/rpc", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s: unexpected status %d", method, resp.StatusCode)
	}
	var reply rpcReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("%s: decode reply: %v", method, err)
	}
	return reply
}

func (h *testHost) markLoaded(t *testing.T) {
	t.Helper()
	resp := h.post(t, "ide", "/loaded", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("loaded: unexpected status %d", resp.StatusCode)
	}
}

func (h *testHost) status(t *testing.T, caller, path string) int {
	t.Helper()
	resp := h.post(t, caller, path, nil)
	resp.Body.Close()
	return resp.StatusCode
}

func expectResult(t *testing.T, reply rpcReply, want string) {
	t.Helper()
	if reply.Error != nil {
		t.Fatalf("unexpected rpc error %+v", reply.Error)
	}
	if string(reply.Result) != want {
		t.Fatalf("expected result %s, got %s", want, reply.Result)
	}
}

func TestGuardViolationsAreSentinelResults(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{})

	expectResult(t, h.call(t, "pluginX", "isEnabled", nil), "false")
	expectResult(t, h.call(t, "pluginX", "login", nil), "false")
	expectResult(t, h.call(t, "pluginX", "getUserAddress", nil), "null")

	h.markLoaded(t)
	expectResult(t, h.call(t, "pluginX", "openSpace", nil), "false")
	expectResult(t, h.call(t, "pluginX", "getPrivateValue", []string{"k"}), "null")
	expectResult(t, h.call(t, "pluginX", "setPublicValue", []string{"k", "v"}), "false")
}

func TestRPCRoundTrip(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{})
	h.markLoaded(t)

	expectResult(t, h.call(t, "pluginX", "login", nil), "true")
	expectResult(t, h.call(t, "pluginX", "isEnabled", nil), "true")
	expectResult(t, h.call(t, "pluginX", "getUserAddress", nil), `"0xabc"`)
	expectResult(t, h.call(t, "pluginX", "isSpaceOpened", nil), "true")

	expectResult(t, h.call(t, "pluginX", "setPrivateValue", []string{"k", "v"}), "true")
	expectResult(t, h.call(t, "pluginX", "getPrivateValue", map[string]string{"key": "k"}), `"v"`)
	expectResult(t, h.call(t, "pluginX", "setPublicValue", map[string]string{"key": "name", "value": "alice"}), "true")

	expectResult(t, h.call(t, "pluginY", "getPrivateValue", []string{"k"}), "null")
	expectResult(t, h.call(t, "pluginY", "isSpaceOpened", nil), "false")

	reply := h.call(t, "pluginY", "getPublicSpaceData", []string{"0xabc", "space-pluginX"})
	expectResult(t, reply, `{"name":"alice"}`)

	expectResult(t, h.call(t, "pluginX", "closeSpace", nil), "true")
	expectResult(t, h.call(t, "pluginX", "isSpaceOpened", nil), "false")

	expectResult(t, h.call(t, "pluginX", "openSpace", nil), "true")
	if code := h.status(t, "ide", "/logout"); code != http.StatusNoContent {
		t.Fatalf("logout: unexpected status %d", code)
	}
	expectResult(t, h.call(t, "pluginX", "isSpaceOpened", nil), "false")
	expectResult(t, h.call(t, "pluginX", "getUserAddress", nil), "null")
}

func TestLoginProviderFailureIsRPCError(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{})
	h.markLoaded(t)
	h.wallet.SetRejecting(true)

	reply := h.call(t, "pluginX", "login", nil)
	if reply.Error == nil || reply.Error.Code != CodeProviderRejected {
		t.Fatalf("expected provider rejected error, got %+v result=%s", reply.Error, reply.Result)
	}
}

type brokenSpaceStore struct {
	goSpace.StoreBackend
}

func (s brokenSpaceStore) OpenBox(ctx context.Context, address string, provider goSpace.WalletProvider) (goSpace.StoreBox, error) {
	if _, err := s.StoreBackend.OpenBox(ctx, address, provider); err != nil {
		return nil, err
	}
	return brokenBox{}, nil
}

type brokenBox struct{}

func (brokenBox) OpenSpace(context.Context, string) (goSpace.StoreSpace, error) {
	return nil, errors.New("namespace unavailable")
}

func TestLoginAutoOpenFailureIsFalseNotStoreError(t *testing.T) {
	h := newTestHostWith(t, hostOptions{
		hostCallers: []string{"ide"},
		wrapStore: func(b goSpace.StoreBackend) goSpace.StoreBackend {
			return brokenSpaceStore{StoreBackend: b}
		},
	})
	h.markLoaded(t)

	expectResult(t, h.call(t, "pluginX", "login", nil), "false")
	expectResult(t, h.call(t, "pluginX", "isEnabled", nil), "true")
	expectResult(t, h.call(t, "pluginX", "isSpaceOpened", nil), "false")
	expectResult(t, h.call(t, "pluginX", "login", nil), "false")
}

func TestSessionControlsAreHostOnly(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{})

	if code := h.status(t, "pluginX", "/loaded"); code != http.StatusForbidden {
		t.Fatalf("plugin /loaded: expected 403, got %d", code)
	}
	expectResult(t, h.call(t, "pluginX", "login", nil), "false")

	h.markLoaded(t)
	expectResult(t, h.call(t, "pluginX", "login", nil), "true")

	if reply := h.call(t, "pluginX", "logout", nil); reply.Error == nil || reply.Error.Code != CodeMethodNotFound {
		t.Fatalf("rpc logout: expected method not found, got %+v", reply.Error)
	}
	if code := h.status(t, "pluginY", "/logout"); code != http.StatusForbidden {
		t.Fatalf("plugin /logout: expected 403, got %d", code)
	}
	expectResult(t, h.call(t, "pluginX", "isEnabled", nil), "true")

	if code := h.status(t, "ide", "/logout"); code != http.StatusNoContent {
		t.Fatalf("host /logout: expected 204, got %d", code)
	}
	expectResult(t, h.call(t, "pluginX", "isEnabled", nil), "false")
}

func TestSessionControlsClosedWithoutHostCallers(t *testing.T) {
	h := newTestHostWith(t, hostOptions{})

	for _, path := range []string{"/loaded", "/logout"} {
		if code := h.status(t, "ide", path); code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", path, code)
		}
	}
}

func TestHostCallerPassesAllowList(t *testing.T) {
	h := newTestHostWith(t, hostOptions{allowed: []string{"pluginX"}, hostCallers: []string{"ide"}})

	h.markLoaded(t)
	expectResult(t, h.call(t, "pluginX", "login", nil), "true")
}

func TestRPCRequestErrors(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{})
	h.markLoaded(t)

	if reply := h.call(t, "pluginX", "eval", nil); reply.Error == nil || reply.Error.Code != CodeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", reply.Error)
	}
	if reply := h.call(t, "pluginX", "setPrivateValue", []string{"only-key"}); reply.Error == nil || reply.Error.Code != CodeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", reply.Error)
	}

	resp := h.post(t, "pluginX", "/rpc", []byte("{not json"))
	defer resp.Body.Close()
	var reply rpcReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Error == nil || reply.Error.Code != CodeParseError {
		t.Fatalf("expected parse error, got %+v", reply.Error)
	}

	resp2 := h.post(t, "pluginX", "/rpc", []byte(`{"jsonrpc":"1.0","id":1,"method":"isEnabled"}`))
	defer resp2.Body.Close()
	var reply2 rpcReply
	_ = json.NewDecoder(resp2.Body).Decode(&reply2)
	if reply2.Error == nil || reply2.Error.Code != CodeInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", reply2.Error)
	}
}

func TestRPCRequiresCallerToken(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{})

	resp := h.post(t, "", "/rpc", []byte(`{"jsonrpc":"2.0","id":1,"method":"isEnabled"}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAllowedCallers(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{}, "pluginX", "ide")

	resp := h.post(t, "pluginZ", "/rpc", []byte(`{"jsonrpc":"2.0","id":1,"method":"isEnabled"}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	expectResult(t, h.call(t, "pluginX", "isEnabled", nil), "false")
}

func TestPerCallerRateLimit(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{RPS: 0.001, Burst: 2})

	h.call(t, "pluginX", "isEnabled", nil)
	h.call(t, "pluginX", "isEnabled", nil)
	reply := h.call(t, "pluginX", "isEnabled", nil)
	if reply.Error == nil || reply.Error.Code != CodeRateLimited {
		t.Fatalf("expected rate limited, got %+v", reply.Error)
	}
	expectResult(t, h.call(t, "pluginY", "isEnabled", nil), "false")
}

func TestEventsStream(t *testing.T) {
	h := newTestHost(t, RateLimitConfig{})
	h.markLoaded(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/events", nil)
	req.Header.Set("Authorization", "Bearer "+h.token(t, "pluginY"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	deadline := time.Now().Add(time.Second)
	for h.bc.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(time.Millisecond)
	}

	expectResult(t, h.call(t, "pluginX", "login", nil), "true")

	lines := make(chan goSpace.Event, 8)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			var ev goSpace.Event
			if json.Unmarshal(sc.Bytes(), &ev) == nil {
				lines <- ev
			}
		}
		close(lines)
	}()

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev, ok := <-lines:
			if !ok {
				t.Fatalf("stream ended early, got %v", got)
			}
			if ev.Caller == "pluginX" {
				t.Fatalf("pluginY received pluginX event %+v", ev)
			}
			got = append(got, ev.Type)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[0] != goSpace.EventConnected || got[1] != goSpace.EventAuthenticated {
		t.Fatalf("unexpected events %v", got)
	}
}
