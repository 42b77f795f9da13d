package account

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/xraph/migrator/version"
)

// Sentinel errors reported by ledger clients.
var (
	ErrAccountNotFound     = errors.New("account: not found on ledger")
	ErrAccountNotActivated = errors.New("account: not activated")
	ErrInsufficientFunds   = errors.New("account: insufficient funds")
	ErrTransactionFailed   = errors.New("account: transaction failed")
	ErrInvalidAddress      = errors.New("account: invalid address")
	ErrInvalidPassphrase   = errors.New("account: invalid passphrase")
)

// NotFoundError reports that an address has no account on a ledger.
type NotFoundError struct {
	Address string
	Ledger  version.Version
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("account: %s not found on %s ledger", e.Address, e.Ledger)
}

// Is matches ErrAccountNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrAccountNotFound }

// NotActivatedError reports an account without the trust line needed to
// hold the ledger's asset.
type NotActivatedError struct {
	Address string
	Ledger  version.Version
}

func (e *NotActivatedError) Error() string {
	return fmt.Sprintf("account: %s not activated on %s ledger", e.Address, e.Ledger)
}

// Is matches ErrAccountNotActivated.
func (e *NotActivatedError) Is(target error) bool { return target == ErrAccountNotActivated }

// TransactionFailedError carries the ledger's result codes for a rejected
// transaction.
type TransactionFailedError struct {
	Hash          string
	TxResultCode  string
	OpResultCodes []string
}

func (e *TransactionFailedError) Error() string {
	if len(e.OpResultCodes) == 0 {
		return fmt.Sprintf("account: transaction failed: %s", e.TxResultCode)
	}
	return fmt.Sprintf("account: transaction failed: %s [%s]", e.TxResultCode, strings.Join(e.OpResultCodes, ", "))
}

// Is matches ErrTransactionFailed, and ErrInsufficientFunds when an
// operation failed for lack of funds.
func (e *TransactionFailedError) Is(target error) bool {
	switch target {
	case ErrTransactionFailed:
		return true
	case ErrInsufficientFunds:
		return slices.Contains(e.OpResultCodes, OpUnderfunded)
	default:
		return false
	}
}

// Operation result codes with special meaning.
const (
	OpUnderfunded = "op_underfunded"
	OpLineFull    = "op_line_full"
	OpNoTrust     = "op_no_trust"
)

// ClassifyResult turns a ledger rejection into the matching typed error.
// op_underfunded maps to ErrInsufficientFunds, op_no_trust to an
// activation error; anything else is a *TransactionFailedError.
func ClassifyResult(address string, ledger version.Version, hash, txCode string, opCodes []string) error {
	switch {
	case slices.Contains(opCodes, OpUnderfunded):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, address)
	case slices.Contains(opCodes, OpNoTrust):
		return &NotActivatedError{Address: address, Ledger: ledger}
	default:
		return &TransactionFailedError{Hash: hash, TxResultCode: txCode, OpResultCodes: opCodes}
	}
}

// IsStateError reports whether err describes the account's ledger state
// rather than a transport or transaction failure.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAccountNotActivated) ||
		errors.Is(err, ErrInsufficientFunds)
}
