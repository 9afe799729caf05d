package goSpace

import "context"

// Step is the position of the session in the connect/login lifecycle.
type Step uint8

const (
	// StepDisconnected is the initial step: no wallet account, no store connection.
	StepDisconnected Step = iota
	// StepWalletConnected means the wallet authorized an account but the store is not authenticated yet.
	StepWalletConnected
	// StepAuthenticated means the store connection is open; namespaces may be opened.
	StepAuthenticated
	// StepNoWalletAvailable is absorbing: no compatible wallet provider was present at Build time.
	StepNoWalletAvailable
)

// String returns the step name used in logs and notifications.
func (s Step) String() string {
	switch s {
	case StepDisconnected:
		return "disconnected"
	case StepWalletConnected:
		return "wallet_connected"
	case StepAuthenticated:
		return "authenticated"
	case StepNoWalletAvailable:
		return "no_wallet_available"
	default:
		return "unknown"
	}
}

// WalletProvider authorizes the user's accounts.
//
// Enable resolves with at least one address, or fails when the user declines
// or the provider is gone. Implementations live in the wallet package.
type WalletProvider interface {
	Enable(ctx context.Context) ([]string, error)
}

// AccountLister is optionally implemented by a WalletProvider that can list
// the accounts it has already authorized without prompting the user. Stores
// prefer it over Enable when they only need to confirm an address.
type AccountLister interface {
	Accounts(ctx context.Context) ([]string, error)
}

// Detector is optionally implemented by a WalletProvider that can report
// whether it is actually usable (the equivalent of an injected provider check).
type Detector interface {
	Available() bool
}

// StoreBackend is the decentralized key/value store.
//
// OpenBox authenticates against the store for address using the wallet
// provider. GetSpace reads the public data of any address+namespace pair
// without an open box.
type StoreBackend interface {
	OpenBox(ctx context.Context, address string, provider WalletProvider) (StoreBox, error)
	GetSpace(ctx context.Context, address, namespaceKey string) (PublicData, error)
}

// StoreBox is the authenticated store connection owned by the session.
type StoreBox interface {
	OpenSpace(ctx context.Context, namespaceKey string) (StoreSpace, error)
}

// StoreSpace is an opened namespace with a private and a public key/value view.
type StoreSpace interface {
	Private() KeyValue
	Public() KeyValue
}

// KeyValue is one view (private or public) of a namespace.
// Get of a missing key returns "" and a nil error.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// PublicData is the public key/value content of a namespace.
type PublicData map[string]string

// SessionState is a point-in-time copy of the session for diagnostics.
type SessionState struct {
	Step       Step
	Address    string
	Enabled    bool
	Loaded     bool
	OpenSpaces []string
}
