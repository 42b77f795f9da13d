// Package burner retires an account on the legacy ledger.
//
// Burning sets the account's master key weight to zero so it can never
// sign again. The operation is idempotent: an account that is already
// burned is reported as such without submitting anything.
package burner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/version"
)

// Outcome is the result of a successful burn.
type Outcome int

const (
	// AlreadyBurned means no transaction was submitted.
	AlreadyBurned Outcome = iota + 1
	// Burned means this call submitted and confirmed the burn.
	Burned
	// NoTrustline means the account was never activated on the legacy
	// ledger, so it holds nothing that can be spent. No transaction is
	// submitted.
	NoTrustline
)

func (o Outcome) String() string {
	switch o {
	case AlreadyBurned:
		return "already_burned"
	case Burned:
		return "burned"
	case NoTrustline:
		return "no_trustline"
	default:
		return "unknown"
	}
}

var (
	// ErrBurnTransactionFailed matches every *TransactionError.
	ErrBurnTransactionFailed = errors.New("burner: burn transaction failed")
	// ErrNotLegacyAccount is returned for handles bound to the current ledger.
	ErrNotLegacyAccount = errors.New("burner: account is not bound to the legacy ledger")
)

// TransactionError reports a rejected or unconfirmed burn.
type TransactionError struct {
	Address string
	Hash    string
	Cause   error
}

func (e *TransactionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("burner: burn transaction failed for %s", e.Address)
	}
	return fmt.Sprintf("burner: burn transaction failed for %s: %v", e.Address, e.Cause)
}

// Unwrap returns the ledger's error.
func (e *TransactionError) Unwrap() error { return e.Cause }

// Is matches ErrBurnTransactionFailed.
func (e *TransactionError) Is(target error) bool { return target == ErrBurnTransactionFailed }

// Notifier receives burn events. *plugin.Registry implements it.
type Notifier interface {
	EmitBurnStarted(ctx context.Context, address string)
	EmitBurnCompleted(ctx context.Context, address string, outcome Outcome, txHash string)
	EmitBurnFailed(ctx context.Context, address string, err error)
}

// Burner burns legacy accounts.
type Burner struct {
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Burner.
type Option func(*Burner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Burner) {
		b.logger = logger
	}
}

// WithNotifier sets where burn events are reported.
func WithNotifier(n Notifier) Option {
	return func(b *Burner) {
		b.notifier = n
	}
}

// New creates a Burner.
func New(opts ...Option) *Burner {
	b := &Burner{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Receipt describes a successful burn. TxHash is empty unless the outcome
// is Burned.
type Receipt struct {
	Outcome Outcome
	TxHash  string
}

// Burn retires the account behind h, which must be bound to the legacy
// ledger. The outcome, or the failure, is reported to the notifier before
// Burn returns.
func (b *Burner) Burn(ctx context.Context, h *account.Handle) (Outcome, error) {
	r, err := b.BurnWithReceipt(ctx, h)
	return r.Outcome, err
}

// BurnWithReceipt is Burn that also returns the burn transaction hash.
func (b *Burner) BurnWithReceipt(ctx context.Context, h *account.Handle) (Receipt, error) {
	address := h.Address()
	if h.Version() != version.Legacy {
		return Receipt{}, b.fail(ctx, address, fmt.Errorf("%w: %s is on %s", ErrNotLegacyAccount, address, h.Version()))
	}

	b.started(ctx, address)

	burned, err := h.IsBurned(ctx)
	if err != nil {
		return Receipt{}, b.fail(ctx, address, err)
	}
	if burned {
		b.logger.Info("account already burned", "address", address)
		b.completed(ctx, address, AlreadyBurned, "")
		return Receipt{Outcome: AlreadyBurned}, nil
	}

	status, err := h.Status(ctx)
	if err != nil {
		return Receipt{}, b.fail(ctx, address, err)
	}
	if status == account.NotActivated {
		return b.noTrustline(ctx, address), nil
	}

	hash, err := h.Client().Burn(ctx, address)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotActivated) {
			return b.noTrustline(ctx, address), nil
		}
		// Account-state errors pass through with their own type.
		if account.IsStateError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Receipt{}, b.fail(ctx, address, err)
		}
		return Receipt{}, b.fail(ctx, address, &TransactionError{Address: address, Hash: hash, Cause: err})
	}
	if hash == "" {
		return Receipt{}, b.fail(ctx, address, &TransactionError{Address: address, Cause: errors.New("ledger returned no transaction hash")})
	}

	b.logger.Info("account burned", "address", address, "tx_hash", hash)
	b.completed(ctx, address, Burned, hash)
	return Receipt{Outcome: Burned, TxHash: hash}, nil
}

func (b *Burner) noTrustline(ctx context.Context, address string) Receipt {
	b.logger.Info("account has no trustline, nothing to burn", "address", address)
	b.completed(ctx, address, NoTrustline, "")
	return Receipt{Outcome: NoTrustline}
}

func (b *Burner) started(ctx context.Context, address string) {
	if b.notifier != nil {
		b.notifier.EmitBurnStarted(ctx, address)
	}
}

func (b *Burner) completed(ctx context.Context, address string, outcome Outcome, hash string) {
	if b.notifier != nil {
		b.notifier.EmitBurnCompleted(ctx, address, outcome, hash)
	}
}

func (b *Burner) fail(ctx context.Context, address string, err error) error {
	b.logger.Warn("burn failed", "address", address, "error", err)
	if b.notifier != nil {
		b.notifier.EmitBurnFailed(context.WithoutCancel(ctx), address, err)
	}
	return err
}
