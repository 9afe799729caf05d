package goSpace

import "errors"

var (
	// ErrNotLoaded is returned when an operation runs before the host load gate fired.
	ErrNotLoaded = errors.New("not loaded")
	// ErrNotAuthenticated is returned when an operation needs an authenticated session.
	ErrNotAuthenticated = errors.New("not connected/authenticated")
	// ErrNamespaceNotOpen is returned when the caller has not opened its namespace.
	ErrNamespaceNotOpen = errors.New("namespace not open")
	// ErrProviderRejected is returned when the wallet provider declined authorization.
	ErrProviderRejected = errors.New("wallet provider rejected authorization")
	// ErrStoreFailure is returned when the store backend rejected an open/get/set call.
	ErrStoreFailure = errors.New("store backend failure")
	// ErrNoWalletAvailable is returned when no compatible wallet provider is present.
	ErrNoWalletAvailable = errors.New("no wallet provider available")
	// ErrNoAccounts is returned when the wallet provider authorized zero accounts.
	ErrNoAccounts = errors.New("wallet provider returned no accounts")
	// ErrLoginInProgress is returned when Login is called while another Login is running.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrSessionReset is returned when a Logout happened while a Login or OpenSpace was in flight.
	ErrSessionReset = errors.New("session reset during operation")
	// ErrWalletTimeout is returned when the wallet provider did not answer in time.
	ErrWalletTimeout = errors.New("wallet provider timeout")
	// ErrStoreTimeout is returned when the store backend did not answer in time.
	ErrStoreTimeout = errors.New("store backend timeout")
	// ErrInvalidCaller is returned for an empty or malformed caller identity.
	ErrInvalidCaller = errors.New("invalid caller identity")
	// ErrWriteRateLimited is returned when a caller exceeded its write budget.
	ErrWriteRateLimited = errors.New("write rate limited")
	// ErrAutoOpenFailed is returned by Login when the session authenticated but
	// opening the caller's namespace afterwards failed. It wraps the open error.
	ErrAutoOpenFailed = errors.New("login succeeded, namespace open failed")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// IsGuardViolation reports whether err is one of the guard chain failures
// (ErrNotLoaded, ErrNotAuthenticated, ErrNamespaceNotOpen). Guard violations
// are expected caller mistakes and are reported as sentinel results by the
// host transport rather than as transport errors.
func IsGuardViolation(err error) bool {
	return errors.Is(err, ErrNotLoaded) ||
		errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrNamespaceNotOpen)
}
