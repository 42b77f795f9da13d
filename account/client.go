// Package account defines the boundary between the migrator and the two
// ledger SDKs.
//
// A Client is one ledger's SDK surface, one per version. A Handle binds an
// address to a Client; it is what callers receive once a session finishes.
package account

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/migrator/types"
	"github.com/xraph/migrator/version"
)

// Status is an account's state on one ledger.
type Status int

const (
	NotCreated Status = iota
	NotActivated
	Activated
)

func (s Status) String() string {
	switch s {
	case NotCreated:
		return "not_created"
	case NotActivated:
		return "not_activated"
	case Activated:
		return "activated"
	default:
		return "unknown"
	}
}

// Payment is a transfer observed on, or submitted to, a ledger.
type Payment struct {
	Hash      string       `json:"hash"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Amount    types.Amount `json:"amount"`
	Memo      string       `json:"memo,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Client is one ledger's SDK as seen by the migrator. Signing and key
// management stay inside the implementation.
type Client interface {
	// Version reports which ledger this client talks to.
	Version() version.Version

	CreateAccount(ctx context.Context, address string) error
	AccountStatus(ctx context.Context, address string) (Status, error)
	// Activate adds the trust line needed to hold the ledger's asset.
	Activate(ctx context.Context, address string) error
	Balance(ctx context.Context, address string) (types.Amount, error)
	// SubmitTransaction sends p from address and returns the transaction hash.
	SubmitTransaction(ctx context.Context, address string, p Payment) (string, error)

	// IsAccountBurned reports whether the account's master key weight is zero.
	IsAccountBurned(ctx context.Context, address string) (bool, error)
	// Burn submits a transaction addressed to the account itself that sets
	// its master key weight to zero. It returns once the ledger confirms.
	Burn(ctx context.Context, address string) (string, error)

	AddAccountCreationListener(address string, fn func()) Registration
	AddPaymentListener(address string, fn func(Payment)) Registration
	AddBalanceListener(address string, fn func(types.Amount)) Registration

	// Export encrypts the account's keys with passphrase.
	Export(ctx context.Context, address, passphrase string) (string, error)
	// ImportAccount restores an exported account and returns its address.
	ImportAccount(ctx context.Context, exported, passphrase string) (string, error)
}

// Registration is returned by every listener subscription.
type Registration interface {
	// Remove unsubscribes the listener. Calling it more than once is a no-op.
	Remove()
}

type registration struct {
	once   sync.Once
	remove func()
}

// NewRegistration returns a Registration that runs remove at most once.
func NewRegistration(remove func()) Registration {
	return &registration{remove: remove}
}

func (r *registration) Remove() {
	r.once.Do(func() {
		if r.remove != nil {
			r.remove()
		}
	})
}

// Source reports the most recently used local account, for sessions
// started without an explicit address.
type Source interface {
	LastActiveAddress(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (string, error)

// LastActiveAddress implements Source.
func (f SourceFunc) LastActiveAddress(ctx context.Context) (string, error) {
	return f(ctx)
}
