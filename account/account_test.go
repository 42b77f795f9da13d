package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/account/accounttest"
	"github.com/xraph/migrator/types"
	"github.com/xraph/migrator/version"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"valid", accounttest.NewAddress(), false},
		{"empty", "", true},
		{"garbage", "not-an-address", true},
		{"seed prefix", "SBAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ValidateAddress(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAddress(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, account.ErrInvalidAddress) {
				t.Errorf("expected ErrInvalidAddress, got %v", err)
			}
		})
	}
}

func TestClassifyResult(t *testing.T) {
	addr := accounttest.NewAddress()

	tests := []struct {
		name    string
		opCodes []string
		target  error
	}{
		{"underfunded", []string{account.OpUnderfunded}, account.ErrInsufficientFunds},
		{"no trust", []string{account.OpNoTrust}, account.ErrAccountNotActivated},
		{"line full", []string{account.OpLineFull}, account.ErrTransactionFailed},
		{"no op codes", nil, account.ErrTransactionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ClassifyResult(addr, version.Current, "h", "tx_failed", tt.opCodes)
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestTransactionFailedErrorCarriesCodes(t *testing.T) {
	err := account.ClassifyResult("G", version.Legacy, "abc", "tx_failed", []string{account.OpLineFull})

	var txErr *account.TransactionFailedError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected *TransactionFailedError, got %T", err)
	}
	if txErr.Hash != "abc" || txErr.OpResultCodes[0] != account.OpLineFull {
		t.Errorf("unexpected fields: %+v", txErr)
	}
	if errors.Is(err, account.ErrInsufficientFunds) {
		t.Error("line full must not match ErrInsufficientFunds")
	}
}

func TestHandleDelegatesToClient(t *testing.T) {
	ctx := context.Background()
	ledger := accounttest.NewLedger(version.Current)
	from, to := accounttest.NewAddress(), accounttest.NewAddress()
	ledger.Fund(from, 1000)
	ledger.Fund(to, 0)

	h := account.NewHandle(from, ledger)
	if h.Version() != version.Current {
		t.Fatalf("Version: got %v, want current", h.Version())
	}

	status, err := h.Status(ctx)
	if err != nil || status != account.Activated {
		t.Fatalf("Status: got %v (%v), want activated", status, err)
	}

	if _, err := h.SendTransaction(ctx, to, types.Kin(400), "rent"); err != nil {
		t.Fatalf("SendTransaction failed: %v", err)
	}

	bal, err := h.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if bal.Units != 600 {
		t.Errorf("Balance: got %d, want 600", bal.Units)
	}

	_, err = h.SendTransaction(ctx, to, types.Kin(10000), "")
	if !errors.Is(err, account.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestSendTransactionRejectsBadDestination(t *testing.T) {
	ledger := accounttest.NewLedger(version.Current)
	from := accounttest.NewAddress()
	ledger.Fund(from, 10)

	_, err := account.NewHandle(from, ledger).SendTransaction(context.Background(), "nope", types.Kin(1), "")
	if !errors.Is(err, account.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestListenerRegistrationRemove(t *testing.T) {
	ctx := context.Background()
	ledger := accounttest.NewLedger(version.Current)
	from, to := accounttest.NewAddress(), accounttest.NewAddress()
	ledger.Fund(from, 100)
	ledger.Fund(to, 0)

	h := account.NewHandle(to, ledger)
	var payments, balances int
	payReg := h.AddPaymentListener(func(account.Payment) { payments++ })
	balReg := h.AddBalanceListener(func(types.Amount) { balances++ })

	sender := account.NewHandle(from, ledger)
	if _, err := sender.SendTransaction(ctx, to, types.Kin(10), ""); err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	payReg.Remove()
	payReg.Remove()
	balReg.Remove()

	if _, err := sender.SendTransaction(ctx, to, types.Kin(10), ""); err != nil {
		t.Fatalf("second send failed: %v", err)
	}

	if payments != 1 {
		t.Errorf("payments: got %d, want 1", payments)
	}
	if balances != 1 {
		t.Errorf("balances: got %d, want 1", balances)
	}
}

func TestAccountCreationListener(t *testing.T) {
	ledger := accounttest.NewLedger(version.Current)
	addr := accounttest.NewAddress()

	fired := 0
	account.NewHandle(addr, ledger).AddAccountCreationListener(func() { fired++ })

	if err := ledger.CreateAccount(context.Background(), addr); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if err := ledger.CreateAccount(context.Background(), addr); err != nil {
		t.Fatalf("second CreateAccount failed: %v", err)
	}
	if fired != 1 {
		t.Errorf("fired: got %d, want 1", fired)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	ledger := accounttest.NewLedger(version.Legacy)
	addr := accounttest.NewAddress()
	ledger.Fund(addr, 1)

	exported, err := account.NewHandle(addr, ledger).Export(ctx, "correct horse")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	got, err := ledger.ImportAccount(ctx, exported, "correct horse")
	if err != nil {
		t.Fatalf("ImportAccount failed: %v", err)
	}
	if got != addr {
		t.Errorf("got %q, want %q", got, addr)
	}

	if _, err := ledger.ImportAccount(ctx, exported, "wrong"); !errors.Is(err, account.ErrInvalidPassphrase) {
		t.Errorf("expected ErrInvalidPassphrase, got %v", err)
	}
}
