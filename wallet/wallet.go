package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"

	goSpace "github.com/MrEthical07/goSpace"
)

// ErrUserRejected models the user declining the authorization prompt.
var ErrUserRejected = errors.New("user rejected the request")

var (
	_ goSpace.WalletProvider = (*Static)(nil)
	_ goSpace.AccountLister  = (*Static)(nil)
	_ goSpace.WalletProvider = Func(nil)
	_ goSpace.Detector       = Unavailable{}
)

// Static authorizes a fixed list of accounts.
type Static struct {
	mu       sync.Mutex
	accounts []string
	granted  []string
	reject   bool
}

// NewStatic returns a provider for accounts. Blank entries are dropped.
func NewStatic(accounts ...string) *Static {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return &Static{accounts: out}
}

// Enable returns a copy of the accounts, or ErrUserRejected while rejecting.
func (s *Static) Enable(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return nil, ErrUserRejected
	}
	s.granted = append([]string(nil), s.accounts...)
	return append([]string(nil), s.accounts...), nil
}

// Accounts returns the accounts granted by the last successful Enable. It
// never prompts and is empty before the first Enable.
func (s *Static) Accounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.granted...), nil
}

// SetRejecting toggles whether Enable declines.
func (s *Static) SetRejecting(reject bool) {
	s.mu.Lock()
	s.reject = reject
	s.mu.Unlock()
}

// Func adapts a function to [goSpace.WalletProvider].
type Func func(ctx context.Context) ([]string, error)

func (f Func) Enable(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// Unavailable stands for a missing wallet. An Engine built with it starts
// and stays in StepNoWalletAvailable.
type Unavailable struct{}

func (Unavailable) Enable(context.Context) ([]string, error) {
	return nil, goSpace.ErrNoWalletAvailable
}

func (Unavailable) Available() bool { return false }
