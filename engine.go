package goSpace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSpace/internal/keylock"
	"github.com/MrEthical07/goSpace/internal/notify"
	"github.com/MrEthical07/goSpace/internal/rate"
)

// Engine owns the single wallet+store session of a host instance and the
// namespaces opened by its callers.
//
// Engine methods are safe for concurrent use. Login is mutually exclusive
// with itself; namespace open/close are serialized per namespace key.
type Engine struct {
	config     Config
	logger     *slog.Logger
	wallet     WalletProvider
	store      StoreBackend
	notifier   NotificationSink
	dispatcher *notify.Dispatcher
	metrics    *Metrics
	limiter    *rate.Limiter
	locks      *keylock.Map

	loaded    atomic.Bool
	loggingIn atomic.Bool

	mu      sync.RWMutex
	step    Step
	address string
	box     StoreBox
	epoch   uint64
	spaces  map[string]StoreSpace
}

// Close flushes pending notifications. The session itself is left untouched.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.dispatcher != nil {
		e.dispatcher.Close()
	}
}

// MarkLoaded fires the load gate. The host transport calls it once its
// initialization handshake completed; before that every guarded operation
// fails with ErrNotLoaded.
func (e *Engine) MarkLoaded() {
	if e == nil {
		return
	}
	if e.loaded.CompareAndSwap(false, true) {
		e.logger.Info("goSpace: loaded")
	}
}

// Loaded reports whether the load gate fired.
func (e *Engine) Loaded() bool {
	return e != nil && e.loaded.Load()
}

// Step returns the current session step.
func (e *Engine) Step() Step {
	if e == nil {
		return StepDisconnected
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.step
}

// State returns a copy of the session for diagnostics.
func (e *Engine) State() SessionState {
	if e == nil {
		return SessionState{}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	return SessionState{
		Step:       e.step,
		Address:    e.address,
		Enabled:    e.step == StepAuthenticated,
		Loaded:     e.loaded.Load(),
		OpenSpaces: sortedKeys(e.spaces),
	}
}

// MetricsSnapshot returns the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// NotificationsDropped returns the notifications dropped by a full dispatcher buffer.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.dispatcher == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
SESSION STATE MACHINE
====================================
*/

// Login advances the session toward StepAuthenticated.
//
// From StepDisconnected it asks the wallet provider for an account, then
// (when Session.AutoAdvance is set, or the session was already at
// StepWalletConnected) authenticates against the store. When caller is not
// empty and Session.AutoOpenSpace is set, the caller's namespace is opened as
// part of the same call and its result is returned. A failed open leaves the
// session authenticated and returns false with an error wrapping
// ErrAutoOpenFailed, never a login failure.
//
// Guard failures return false with the guard error. Login on an authenticated
// session is a no-op returning false and a nil error. Wallet and store
// failures are returned to the caller without rolling back earlier steps: a
// failed store step leaves the session at StepWalletConnected and the next
// Login retries only that step.
func (e *Engine) Login(ctx context.Context, caller string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	if err := e.requireLoaded("login", caller); err != nil {
		return false, err
	}
	if caller != "" {
		if err := e.validateCaller(caller); err != nil {
			return false, err
		}
	}

	if !e.loggingIn.CompareAndSwap(false, true) {
		e.metricInc(MetricLoginInProgress)
		e.logger.Warn("goSpace: login already in progress", "caller", caller)
		return false, ErrLoginInProgress
	}
	defer e.loggingIn.Store(false)

	e.mu.RLock()
	step, epoch := e.step, e.epoch
	e.mu.RUnlock()

	switch step {
	case StepNoWalletAvailable:
		e.logger.Error("goSpace: no wallet provider available, install a compatible wallet to continue", "caller", caller)
		return false, ErrNoWalletAvailable
	case StepAuthenticated:
		e.metricInc(MetricLoginNoop)
		return false, nil
	}

	if step == StepDisconnected {
		if err := e.stepConnectWallet(ctx, epoch); err != nil {
			e.loginFailed(ctx, caller, "connect_wallet", err)
			return false, err
		}
		if !e.config.Session.AutoAdvance {
			return true, nil
		}
	}

	if err := e.stepAuthenticateStore(ctx, epoch); err != nil {
		e.loginFailed(ctx, caller, "authenticate_store", err)
		return false, err
	}
	e.metricInc(MetricLoginSuccess)

	if caller != "" && e.config.Session.AutoOpenSpace {
		return e.stepOpenCallerSpace(ctx, caller)
	}
	return true, nil
}

// stepConnectWallet performs Disconnected -> WalletConnected.
func (e *Engine) stepConnectWallet(ctx context.Context, epoch uint64) error {
	var accounts []string
	err := e.walletCall(ctx, func(cctx context.Context) error {
		var err error
		accounts, err = e.wallet.Enable(cctx)
		return err
	})
	if err != nil {
		return err
	}
	if len(accounts) == 0 || strings.TrimSpace(accounts[0]) == "" {
		return fmt.Errorf("%w: %w", ErrProviderRejected, ErrNoAccounts)
	}
	address := strings.TrimSpace(accounts[0])

	e.mu.Lock()
	if e.epoch != epoch || e.step != StepDisconnected {
		e.mu.Unlock()
		return ErrSessionReset
	}
	e.address = address
	e.step = StepWalletConnected
	e.mu.Unlock()

	e.metricInc(MetricWalletConnected)
	e.logger.Info("goSpace: wallet connected", "address", address)
	e.emit(ctx, EventConnected, StepWalletConnected, func(ev *Event) {
		ev.Address = address
	})
	return nil
}

// stepAuthenticateStore performs WalletConnected -> Authenticated.
func (e *Engine) stepAuthenticateStore(ctx context.Context, epoch uint64) error {
	e.mu.RLock()
	address, step, current := e.address, e.step, e.epoch
	e.mu.RUnlock()
	if current != epoch || step != StepWalletConnected {
		return ErrSessionReset
	}

	var box StoreBox
	err := e.storeCall(ctx, func(cctx context.Context) error {
		var err error
		box, err = e.store.OpenBox(cctx, address, e.wallet)
		return err
	})
	if err != nil {
		return err
	}
	if box == nil {
		return fmt.Errorf("%w: nil box", ErrStoreFailure)
	}

	e.mu.Lock()
	if e.epoch != epoch || e.step != StepWalletConnected {
		e.mu.Unlock()
		return ErrSessionReset
	}
	e.box = box
	e.step = StepAuthenticated
	e.mu.Unlock()

	e.metricInc(MetricStoreAuthenticated)
	e.logger.Info("goSpace: store authenticated", "address", address)
	e.emit(ctx, EventAuthenticated, StepAuthenticated, func(ev *Event) {
		ev.Address = address
	})
	return nil
}

// stepOpenCallerSpace opens the namespace of the plugin that called Login.
func (e *Engine) stepOpenCallerSpace(ctx context.Context, caller string) (bool, error) {
	ok, err := e.OpenSpace(ctx, caller)
	if err != nil {
		e.logger.Warn("goSpace: login authenticated, auto open failed", "caller", caller, "error", err)
		return false, fmt.Errorf("%w: %w", ErrAutoOpenFailed, err)
	}
	return ok, nil
}

func (e *Engine) loginFailed(ctx context.Context, caller, stage string, err error) {
	if errors.Is(err, ErrSessionReset) {
		e.logger.Warn("goSpace: login discarded by logout", "caller", caller, "stage", stage)
		return
	}
	e.metricInc(MetricLoginFailure)
	e.logger.Error("goSpace: login failed", "caller", caller, "stage", stage, "error", err)
	step := e.Step()
	e.emit(ctx, EventLoginFailed, step, func(ev *Event) {
		ev.Caller = caller
		ev.Error = err.Error()
	})
}

// Logout resets the session to StepDisconnected, dropping the wallet
// address, the store connection and every opened namespace. It never fails
// and is idempotent. A session without a wallet provider stays at
// StepNoWalletAvailable.
func (e *Engine) Logout(ctx context.Context) {
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.step != StepNoWalletAvailable {
		e.step = StepDisconnected
	}
	address := e.address
	closed := len(e.spaces)
	e.address = ""
	e.box = nil
	e.spaces = make(map[string]StoreSpace)
	e.epoch++
	step := e.step
	e.mu.Unlock()

	e.metricInc(MetricLogout)
	e.logger.Info("goSpace: logged out", "address", address, "closed_spaces", closed)
	e.emit(ctx, EventLoggedOut, step, func(ev *Event) {
		ev.Address = address
	})
}

// IsEnabled reports whether the session is authenticated.
func (e *Engine) IsEnabled() (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	if err := e.requireLoaded("isEnabled", ""); err != nil {
		return false, err
	}
	return e.Step() == StepAuthenticated, nil
}

// UserAddress returns the wallet address, or "" before StepWalletConnected.
func (e *Engine) UserAddress() (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := e.requireLoaded("getUserAddress", ""); err != nil {
		return "", err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.address, nil
}

/*
====================================
CALL BOUNDARIES
====================================
*/

func (e *Engine) walletCall(ctx context.Context, fn func(context.Context) error) error {
	err := boundedCall(ctx, e.config.Timeouts.Wallet, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, errCallTimedOut) {
		e.metricInc(MetricWalletTimeout)
		return fmt.Errorf("%w: after %s", ErrWalletTimeout, e.config.Timeouts.Wallet)
	}
	if cerr := canceled(ctx, err); cerr != nil {
		return cerr
	}
	return fmt.Errorf("%w: %v", ErrProviderRejected, err)
}

func (e *Engine) storeCall(ctx context.Context, fn func(context.Context) error) error {
	start := time.Now()
	err := boundedCall(ctx, e.config.Timeouts.Store, fn)
	if e.metrics != nil {
		e.metrics.Observe(MetricStoreLatency, time.Since(start))
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, errCallTimedOut) {
		e.metricInc(MetricStoreTimeout)
		return fmt.Errorf("%w: after %s", ErrStoreTimeout, e.config.Timeouts.Store)
	}
	if cerr := canceled(ctx, err); cerr != nil {
		return cerr
	}
	return fmt.Errorf("%w: %v", ErrStoreFailure, err)
}

var errCallTimedOut = errors.New("call timed out")

// canceled returns the caller's own context error when it ended the call, so
// a dropped request is not reported as a provider or store failure.
func canceled(ctx context.Context, err error) error {
	if ctx == nil || ctx.Err() == nil {
		return nil
	}
	if errors.Is(err, ctx.Err()) {
		return err
	}
	return fmt.Errorf("%w: %v", ctx.Err(), err)
}

// boundedCall runs fn with a deadline and stops waiting once it passes, even
// if fn ignores its context.
func boundedCall(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return fn(ctx)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(cctx)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return errCallTimedOut
		}
		return err
	case <-cctx.Done():
		if ctx.Err() == nil {
			return errCallTimedOut
		}
		return ctx.Err()
	}
}

func sortedKeys(m map[string]StoreSpace) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
