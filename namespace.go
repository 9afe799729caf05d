package goSpace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/MrEthical07/goSpace/internal/rate"
)

/*
====================================
NAMESPACE KEYS
====================================
*/

// NamespaceKey returns the namespace key owned by caller. The key is derived
// from the caller identity only; callers can never choose another key.
func (e *Engine) NamespaceKey(caller string) string {
	return e.config.Namespace.Prefix + "-" + caller
}

func (e *Engine) validateCaller(caller string) error {
	if caller == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCaller)
	}
	if len(caller) > e.config.Namespace.MaxCallerLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidCaller, e.config.Namespace.MaxCallerLength)
	}
	if strings.IndexFunc(caller, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidCaller)
	}
	return nil
}

/*
====================================
OPEN / CLOSE
====================================
*/

// IsSpaceOpened reports whether caller has an opened namespace.
func (e *Engine) IsSpaceOpened(caller string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	if err := e.requireEnabled("isSpaceOpened", caller); err != nil {
		return false, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.spaces[e.NamespaceKey(caller)]
	return ok, nil
}

// OpenSpace opens the namespace of caller on the authenticated store box.
// Opening an already opened namespace fetches a fresh handle and replaces
// the old one.
func (e *Engine) OpenSpace(ctx context.Context, caller string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	if err := e.requireEnabled("openSpace", caller); err != nil {
		return false, err
	}
	if err := e.validateCaller(caller); err != nil {
		return false, err
	}

	key := e.NamespaceKey(caller)
	unlock := e.locks.Lock(key)
	defer unlock()

	e.mu.RLock()
	box, epoch, address := e.box, e.epoch, e.address
	e.mu.RUnlock()
	if box == nil {
		// Logged out between the guard and the lock.
		return false, ErrNotAuthenticated
	}

	var space StoreSpace
	err := e.storeCall(ctx, func(cctx context.Context) error {
		var err error
		space, err = box.OpenSpace(cctx, key)
		return err
	})
	if err == nil && space == nil {
		err = fmt.Errorf("%w: nil space", ErrStoreFailure)
	}
	if err != nil {
		e.metricInc(MetricSpaceOpenFailure)
		e.logger.Error("goSpace: open space failed", "caller", caller, "namespace", key, "error", err)
		return false, err
	}

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		e.logger.Warn("goSpace: open space discarded by logout", "caller", caller, "namespace", key)
		return false, ErrSessionReset
	}
	e.spaces[key] = space
	e.mu.Unlock()

	e.metricInc(MetricSpaceOpened)
	e.logger.Info("goSpace: space opened", "caller", caller, "namespace", key)
	e.emit(ctx, EventSpaceOpened, StepAuthenticated, func(ev *Event) {
		ev.Address = address
		ev.Caller = caller
		ev.Namespace = key
	})
	return true, nil
}

// CloseSpace forgets the namespace handle of caller. Closing a namespace
// that was never opened succeeds.
func (e *Engine) CloseSpace(ctx context.Context, caller string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	if err := e.requireEnabled("closeSpace", caller); err != nil {
		return false, err
	}

	key := e.NamespaceKey(caller)
	unlock := e.locks.Lock(key)
	defer unlock()

	e.mu.Lock()
	_, existed := e.spaces[key]
	delete(e.spaces, key)
	step, address := e.step, e.address
	e.mu.Unlock()

	e.metricInc(MetricSpaceClosed)
	e.logger.Info("goSpace: space closed", "caller", caller, "namespace", key, "existed", existed)
	e.emit(ctx, EventSpaceClosed, step, func(ev *Event) {
		ev.Address = address
		ev.Caller = caller
		ev.Namespace = key
	})
	return true, nil
}

// OpenSpaces returns the sorted keys of every opened namespace.
func (e *Engine) OpenSpaces() []string {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sortedKeys(e.spaces)
}

/*
====================================
VALUES
====================================
*/

// GetPrivateValue reads key from the private half of the caller's namespace.
// A missing key reads as "".
func (e *Engine) GetPrivateValue(ctx context.Context, caller, key string) (string, error) {
	space, err := e.spaceFor("getPrivateValue", caller)
	if err != nil {
		return "", err
	}
	return e.readValue(ctx, space.Private(), key)
}

// SetPrivateValue writes key in the private half of the caller's namespace.
func (e *Engine) SetPrivateValue(ctx context.Context, caller, key, value string) (bool, error) {
	space, err := e.spaceFor("setPrivateValue", caller)
	if err != nil {
		return false, err
	}
	return e.writeValue(ctx, caller, space.Private(), key, value)
}

// GetPublicValue reads key from the public half of the caller's namespace.
func (e *Engine) GetPublicValue(ctx context.Context, caller, key string) (string, error) {
	space, err := e.spaceFor("getPublicValue", caller)
	if err != nil {
		return "", err
	}
	return e.readValue(ctx, space.Public(), key)
}

// SetPublicValue writes key in the public half of the caller's namespace.
func (e *Engine) SetPublicValue(ctx context.Context, caller, key, value string) (bool, error) {
	space, err := e.spaceFor("setPublicValue", caller)
	if err != nil {
		return false, err
	}
	return e.writeValue(ctx, caller, space.Public(), key, value)
}

// GetPublicSpaceData reads the public data of any address and namespace
// without an authenticated session.
func (e *Engine) GetPublicSpaceData(ctx context.Context, address, namespaceKey string) (PublicData, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	e.metricInc(MetricPublicSpaceRead)

	var data PublicData
	err := e.storeCall(ctx, func(cctx context.Context) error {
		var err error
		data, err = e.store.GetSpace(cctx, address, namespaceKey)
		return err
	})
	if err != nil {
		e.logger.Error("goSpace: public space read failed", "address", address, "namespace", namespaceKey, "error", err)
		return nil, err
	}
	if data == nil {
		data = PublicData{}
	}
	return data, nil
}

func (e *Engine) spaceFor(op, caller string) (StoreSpace, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.requireSpaceOpened(op, caller)
}

func (e *Engine) readValue(ctx context.Context, kv KeyValue, key string) (string, error) {
	e.metricInc(MetricValueRead)

	var value string
	err := e.storeCall(ctx, func(cctx context.Context) error {
		var err error
		value, err = kv.Get(cctx, key)
		return err
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (e *Engine) writeValue(ctx context.Context, caller string, kv KeyValue, key, value string) (bool, error) {
	if e.limiter != nil {
		if err := e.limiter.AllowWrite(ctx, caller); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricWriteRateLimited)
				e.logger.Warn("goSpace: write rate limited", "caller", caller)
				return false, ErrWriteRateLimited
			}
			return false, fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
	}

	e.metricInc(MetricValueWrite)
	err := e.storeCall(ctx, func(cctx context.Context) error {
		return kv.Set(cctx, key, value)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
