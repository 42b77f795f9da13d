package account

import (
	"context"

	"github.com/xraph/migrator/types"
	"github.com/xraph/migrator/version"
)

// Handle is an address bound to one ledger's client. Every capability is
// delegated to that client.
type Handle struct {
	address string
	version version.Version
	client  Client
}

// NewHandle binds address to c.
func NewHandle(address string, c Client) *Handle {
	return &Handle{address: address, version: c.Version(), client: c}
}

// Address returns the public address.
func (h *Handle) Address() string { return h.address }

// Version returns the ledger the handle is bound to.
func (h *Handle) Version() version.Version { return h.version }

// Client returns the underlying ledger client.
func (h *Handle) Client() Client { return h.client }

// Status returns the account's state on the bound ledger.
func (h *Handle) Status(ctx context.Context) (Status, error) {
	return h.client.AccountStatus(ctx, h.address)
}

// Activate adds the account's trust line.
func (h *Handle) Activate(ctx context.Context) error {
	return h.client.Activate(ctx, h.address)
}

// Balance returns the account balance.
func (h *Handle) Balance(ctx context.Context) (types.Amount, error) {
	return h.client.Balance(ctx, h.address)
}

// SendTransaction pays amount to the destination and returns the hash.
func (h *Handle) SendTransaction(ctx context.Context, to string, amount types.Amount, memo string) (string, error) {
	if err := ValidateAddress(to); err != nil {
		return "", err
	}
	return h.client.SubmitTransaction(ctx, h.address, Payment{
		From:   h.address,
		To:     to,
		Amount: amount,
		Memo:   memo,
	})
}

// IsBurned reports whether the account can no longer sign.
func (h *Handle) IsBurned(ctx context.Context) (bool, error) {
	return h.client.IsAccountBurned(ctx, h.address)
}

// Export encrypts the account's keys with passphrase.
func (h *Handle) Export(ctx context.Context, passphrase string) (string, error) {
	return h.client.Export(ctx, h.address, passphrase)
}

// AddAccountCreationListener fires once the account appears on the ledger.
func (h *Handle) AddAccountCreationListener(fn func()) Registration {
	return h.client.AddAccountCreationListener(h.address, fn)
}

// AddPaymentListener fires for every payment to or from the account.
func (h *Handle) AddPaymentListener(fn func(Payment)) Registration {
	return h.client.AddPaymentListener(h.address, fn)
}

// AddBalanceListener fires when the account balance changes.
func (h *Handle) AddBalanceListener(fn func(types.Amount)) Registration {
	return h.client.AddBalanceListener(h.address, fn)
}
