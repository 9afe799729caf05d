package goSpace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeWallet struct {
	accounts  []string
	err       error
	calls     atomic.Int32
	block     chan struct{}
	available *bool
}

func (w *fakeWallet) Enable(ctx context.Context) ([]string, error) {
	w.calls.Add(1)
	if w.block != nil {
		select {
		case <-w.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if w.err != nil {
		return nil, w.err
	}
	return append([]string(nil), w.accounts...), nil
}

type detectingWallet struct {
	fakeWallet
	ok bool
}

func (w *detectingWallet) Available() bool { return w.ok }

type memKV struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemKV() *memKV {
	return &memKV{values: map[string]string{}}
}

func (kv *memKV) Get(ctx context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return "", kv.err
	}
	return kv.values[key], nil
}

func (kv *memKV) Set(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return kv.err
	}
	kv.values[key] = value
	return nil
}

type fakeSpace struct {
	private *memKV
	public  *memKV
}

func (s *fakeSpace) Private() KeyValue { return s.private }
func (s *fakeSpace) Public() KeyValue  { return s.public }

type fakeBox struct {
	store *fakeStore
}

func (b *fakeBox) OpenSpace(ctx context.Context, namespaceKey string) (StoreSpace, error) {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaceOpens = append(s.spaceOpens, namespaceKey)
	if s.spaceErr != nil {
		return nil, s.spaceErr
	}
	sp, ok := s.spaces[namespaceKey]
	if !ok {
		sp = &fakeSpace{private: newMemKV(), public: newMemKV()}
		s.spaces[namespaceKey] = sp
	}
	return sp, nil
}

type fakeStore struct {
	mu         sync.Mutex
	boxErr     error
	spaceErr   error
	boxCalls   int
	boxAddrs   []string
	spaceOpens []string
	spaces     map[string]*fakeSpace
	public     map[string]PublicData
	block      chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		spaces: map[string]*fakeSpace{},
		public: map[string]PublicData{},
	}
}

func (s *fakeStore) OpenBox(ctx context.Context, address string, provider WalletProvider) (StoreBox, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxCalls++
	s.boxAddrs = append(s.boxAddrs, address)
	if s.boxErr != nil {
		return nil, s.boxErr
	}
	return &fakeBox{store: s}, nil
}

func (s *fakeStore) GetSpace(ctx context.Context, address, namespaceKey string) (PublicData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.public[address+"/"+namespaceKey]
	if !ok {
		return nil, errors.New("space not found")
	}
	return data, nil
}

func (s *fakeStore) setBoxErr(err error) {
	s.mu.Lock()
	s.boxErr = err
	s.mu.Unlock()
}

func (s *fakeStore) boxCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boxCalls
}

func (s *fakeStore) spaceOpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spaceOpens)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEngine struct {
	engine *Engine
	wallet *fakeWallet
	store  *fakeStore
	sink   *ChannelSink
}

// newTestEngine builds a loaded engine with a synchronous channel sink.
func newTestEngine(t *testing.T, mutate func(*Config)) testEngine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Notify.Enabled = false
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	w := &fakeWallet{accounts: []string{"0xabc", "0xdef"}}
	st := newFakeStore()
	sink := NewChannelSink(64)

	engine, err := New().
		WithConfig(cfg).
		WithWallet(w).
		WithStore(st).
		WithNotificationSink(sink).
		WithLogger(discardLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine.MarkLoaded()
	t.Cleanup(engine.Close)

	return testEngine{engine: engine, wallet: w, store: st, sink: sink}
}

func drainEvents(sink *ChannelSink) []Event {
	var out []Event
	for {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func mustLogin(t *testing.T, e *Engine, caller string) {
	t.Helper()
	ok, err := e.Login(context.Background(), caller)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !ok {
		t.Fatal("expected login to succeed")
	}
}
