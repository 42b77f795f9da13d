package burner_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/account/accounttest"
	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/version"
)

type recordingNotifier struct {
	mu       sync.Mutex
	events   []string
	outcomes []burner.Outcome
	errs     []error
}

func (n *recordingNotifier) EmitBurnStarted(_ context.Context, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "started")
}

func (n *recordingNotifier) EmitBurnCompleted(_ context.Context, _ string, o burner.Outcome, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "completed")
	n.outcomes = append(n.outcomes, o)
}

func (n *recordingNotifier) EmitBurnFailed(_ context.Context, _ string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "failed")
	n.errs = append(n.errs, err)
}

func TestBurnActiveAccount(t *testing.T) {
	ledger := accounttest.NewLedger(version.Legacy)
	addr := accounttest.NewAddress()
	ledger.Fund(addr, 100)

	n := &recordingNotifier{}
	b := burner.New(burner.WithNotifier(n))

	outcome, err := b.Burn(context.Background(), account.NewHandle(addr, ledger))
	if err != nil {
		t.Fatalf("Burn failed: %v", err)
	}
	if outcome != burner.Burned {
		t.Errorf("outcome: got %v, want %v", outcome, burner.Burned)
	}
	if !ledger.Burned(addr) {
		t.Error("expected account to be burned on ledger")
	}
	if len(n.outcomes) != 1 || n.outcomes[0] != burner.Burned {
		t.Errorf("notifier outcomes: got %v", n.outcomes)
	}
}

func TestBurnIsIdempotent(t *testing.T) {
	ledger := accounttest.NewLedger(version.Legacy)
	addr := accounttest.NewAddress()
	ledger.Put(addr, true, true)

	n := &recordingNotifier{}
	b := burner.New(burner.WithNotifier(n))

	outcome, err := b.Burn(context.Background(), account.NewHandle(addr, ledger))
	if err != nil {
		t.Fatalf("Burn failed: %v", err)
	}
	if outcome != burner.AlreadyBurned {
		t.Errorf("outcome: got %v, want %v", outcome, burner.AlreadyBurned)
	}
	if _, _, burns := ledger.Calls(); burns != 0 {
		t.Errorf("burn submissions: got %d, want 0", burns)
	}
	if len(n.outcomes) != 1 || n.outcomes[0] != burner.AlreadyBurned {
		t.Errorf("notifier outcomes: got %v", n.outcomes)
	}
}

func TestBurnTwice(t *testing.T) {
	ledger := accounttest.NewLedger(version.Legacy)
	addr := accounttest.NewAddress()
	ledger.Fund(addr, 1)
	b := burner.New()
	h := account.NewHandle(addr, ledger)

	first, err := b.Burn(context.Background(), h)
	if err != nil {
		t.Fatalf("first Burn failed: %v", err)
	}
	second, err := b.Burn(context.Background(), h)
	if err != nil {
		t.Fatalf("second Burn failed: %v", err)
	}
	if first != burner.Burned || second != burner.AlreadyBurned {
		t.Errorf("got %v then %v, want burned then already_burned", first, second)
	}
}

func TestBurnFailures(t *testing.T) {
	rejected := &account.TransactionFailedError{TxResultCode: "tx_bad_auth"}
	emptyHash := ""

	tests := []struct {
		name   string
		setup  func(l *accounttest.Ledger, addr string)
		target error
	}{
		{
			name:   "missing account",
			setup:  func(*accounttest.Ledger, string) {},
			target: account.ErrAccountNotFound,
		},
		{
			name: "ledger rejects burn",
			setup: func(l *accounttest.Ledger, addr string) {
				l.Fund(addr, 1)
				l.SetErrors(accounttest.Errors{Burn: rejected})
			},
			target: burner.ErrBurnTransactionFailed,
		},
		{
			name: "no transaction hash",
			setup: func(l *accounttest.Ledger, addr string) {
				l.Fund(addr, 1)
				l.BurnHash = &emptyHash
			},
			target: burner.ErrBurnTransactionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := accounttest.NewLedger(version.Legacy)
			addr := accounttest.NewAddress()
			tt.setup(ledger, addr)

			n := &recordingNotifier{}
			_, err := burner.New(burner.WithNotifier(n)).Burn(context.Background(), account.NewHandle(addr, ledger))
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			if len(n.errs) != 1 {
				t.Errorf("notifier failures: got %d, want 1", len(n.errs))
			}
		})
	}
}

func TestBurnPreservesLedgerCause(t *testing.T) {
	ledger := accounttest.NewLedger(version.Legacy)
	addr := accounttest.NewAddress()
	ledger.Fund(addr, 1)
	cause := &account.TransactionFailedError{TxResultCode: "tx_failed", OpResultCodes: []string{account.OpLineFull}}
	ledger.SetErrors(accounttest.Errors{Burn: cause})

	_, err := burner.New().Burn(context.Background(), account.NewHandle(addr, ledger))

	var txErr *account.TransactionFailedError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected ledger error in chain, got %v", err)
	}
	var burnErr *burner.TransactionError
	if !errors.As(err, &burnErr) || burnErr.Address != addr {
		t.Errorf("expected *TransactionError for %s, got %v", addr, err)
	}
}

func TestBurnRejectsCurrentHandle(t *testing.T) {
	ledger := accounttest.NewLedger(version.Current)
	addr := accounttest.NewAddress()
	ledger.Fund(addr, 1)

	_, err := burner.New().Burn(context.Background(), account.NewHandle(addr, ledger))
	if !errors.Is(err, burner.ErrNotLegacyAccount) {
		t.Fatalf("expected ErrNotLegacyAccount, got %v", err)
	}
	if ledger.BurnChecks() != 0 {
		t.Error("expected no ledger queries")
	}
}

func TestNotifierOrder(t *testing.T) {
	ledger := accounttest.NewLedger(version.Legacy)
	addr := accounttest.NewAddress()
	ledger.Fund(addr, 1)

	n := &recordingNotifier{}
	if _, err := burner.New(burner.WithNotifier(n)).Burn(context.Background(), account.NewHandle(addr, ledger)); err != nil {
		t.Fatalf("Burn failed: %v", err)
	}
	if len(n.events) != 2 || n.events[0] != "started" || n.events[1] != "completed" {
		t.Errorf("events: got %v, want [started completed]", n.events)
	}
}

func TestBurnWithReceipt(t *testing.T) {
	ledger := accounttest.NewLedger(version.Legacy)
	addr := accounttest.NewAddress()
	ledger.Fund(addr, 1)
	b := burner.New()
	h := account.NewHandle(addr, ledger)

	r, err := b.BurnWithReceipt(context.Background(), h)
	if err != nil {
		t.Fatalf("BurnWithReceipt failed: %v", err)
	}
	if r.Outcome != burner.Burned || r.TxHash == "" {
		t.Errorf("unexpected receipt: %+v", r)
	}

	again, err := b.BurnWithReceipt(context.Background(), h)
	if err != nil {
		t.Fatalf("second BurnWithReceipt failed: %v", err)
	}
	if again.Outcome != burner.AlreadyBurned || again.TxHash != "" {
		t.Errorf("unexpected second receipt: %+v", again)
	}
}

func TestBurnAccountWithoutTrustline(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(l *accounttest.Ledger, addr string)
		wantBurns int
	}{
		{
			name:      "never activated",
			setup:     func(l *accounttest.Ledger, addr string) { l.Put(addr, false, false) },
			wantBurns: 0,
		},
		{
			name: "ledger reports missing trustline on submit",
			setup: func(l *accounttest.Ledger, addr string) {
				l.Fund(addr, 1)
				l.SetErrors(accounttest.Errors{Burn: &account.NotActivatedError{Address: addr, Ledger: version.Legacy}})
			},
			wantBurns: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := accounttest.NewLedger(version.Legacy)
			addr := accounttest.NewAddress()
			tt.setup(ledger, addr)

			n := &recordingNotifier{}
			r, err := burner.New(burner.WithNotifier(n)).BurnWithReceipt(context.Background(), account.NewHandle(addr, ledger))
			if err != nil {
				t.Fatalf("BurnWithReceipt failed: %v", err)
			}
			if r.Outcome != burner.NoTrustline || r.TxHash != "" {
				t.Errorf("unexpected receipt: %+v", r)
			}
			if _, _, burns := ledger.Calls(); burns != tt.wantBurns {
				t.Errorf("burn submissions: got %d, want %d", burns, tt.wantBurns)
			}
			if len(n.outcomes) != 1 || n.outcomes[0] != burner.NoTrustline {
				t.Errorf("notifier outcomes: got %v", n.outcomes)
			}
			if len(n.errs) != 0 {
				t.Errorf("notifier failures: got %v", n.errs)
			}
		})
	}
}
