// Package accounttest provides an in-memory ledger for tests of code that
// drives account.Client.
package accounttest

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/stellar/go-stellar-sdk/strkey"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/types"
	"github.com/xraph/migrator/version"
)

// NewAddress returns a random, well-formed account address.
func NewAddress() string {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic(err)
	}
	addr, err := strkey.Encode(strkey.VersionByteAccountID, raw[:])
	if err != nil {
		panic(err)
	}
	return addr
}

type accountState struct {
	activated bool
	burned    bool
	balance   int64
}

// Errors lets a test force a failure from a specific operation.
type Errors struct {
	Create   error
	Status   error
	Activate error
	IsBurned error
	Burn     error
	Submit   error
}

// Ledger is a concurrency-safe account.Client backed by maps.
type Ledger struct {
	mu       sync.Mutex
	ver      version.Version
	scale    int32
	accounts map[string]*accountState
	errs     Errors

	// BurnHash overrides the hash returned by a successful burn when set.
	BurnHash *string

	// BeforeBurn runs inside Burn before the ledger is mutated.
	BeforeBurn func()

	creates, activates, burns, burnChecks int

	nextListener int
	created      map[string]map[int]func()
	payments     map[string]map[int]func(account.Payment)
	balances     map[string]map[int]func(types.Amount)
}

var _ account.Client = (*Ledger)(nil)

// NewLedger returns an empty ledger for v.
func NewLedger(v version.Version) *Ledger {
	scale := types.CurrentScale
	if v == version.Legacy {
		scale = types.LegacyScale
	}
	return &Ledger{
		ver:      v,
		scale:    scale,
		accounts: make(map[string]*accountState),
		created:  make(map[string]map[int]func()),
		payments: make(map[string]map[int]func(account.Payment)),
		balances: make(map[string]map[int]func(types.Amount)),
	}
}

// Fund creates an activated account holding units.
func (l *Ledger) Fund(address string, units int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &accountState{activated: true, balance: units}
}

// Put creates an account in the given state.
func (l *Ledger) Put(address string, activated, burned bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &accountState{activated: activated, burned: burned}
}

// SetErrors replaces the forced failures.
func (l *Ledger) SetErrors(e Errors) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = e
}

// Exists reports whether the account has been created.
func (l *Ledger) Exists(address string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.accounts[address]
	return ok
}

// Burned reports whether the account has been burned.
func (l *Ledger) Burned(address string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[address]
	return ok && a.burned
}

// Calls reports how many creates, activates and burn submissions ran.
func (l *Ledger) Calls() (creates, activates, burns int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creates, l.activates, l.burns
}

// BurnChecks reports how many times IsAccountBurned was called.
func (l *Ledger) BurnChecks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burnChecks
}

// Version implements account.Client.
func (l *Ledger) Version() version.Version { return l.ver }

// CreateAccount implements account.Client.
func (l *Ledger) CreateAccount(_ context.Context, address string) error {
	l.mu.Lock()
	l.creates++
	if l.errs.Create != nil {
		err := l.errs.Create
		l.mu.Unlock()
		return err
	}
	var listeners []func()
	if _, ok := l.accounts[address]; !ok {
		l.accounts[address] = &accountState{}
		listeners = collect(l.created[address])
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// AccountStatus implements account.Client.
func (l *Ledger) AccountStatus(_ context.Context, address string) (account.Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.errs.Status != nil {
		return 0, l.errs.Status
	}
	a, ok := l.accounts[address]
	switch {
	case !ok:
		return account.NotCreated, nil
	case !a.activated:
		return account.NotActivated, nil
	default:
		return account.Activated, nil
	}
}

// Activate implements account.Client.
func (l *Ledger) Activate(_ context.Context, address string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activates++
	if l.errs.Activate != nil {
		return l.errs.Activate
	}
	a, ok := l.accounts[address]
	if !ok {
		return &account.NotFoundError{Address: address, Ledger: l.ver}
	}
	a.activated = true
	return nil
}

// Balance implements account.Client.
func (l *Ledger) Balance(_ context.Context, address string) (types.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[address]
	if !ok {
		return types.Amount{}, &account.NotFoundError{Address: address, Ledger: l.ver}
	}
	return types.Amount{Units: a.balance, Scale: l.scale}, nil
}

// SubmitTransaction implements account.Client.
func (l *Ledger) SubmitTransaction(_ context.Context, address string, p account.Payment) (string, error) {
	l.mu.Lock()
	if l.errs.Submit != nil {
		err := l.errs.Submit
		l.mu.Unlock()
		return "", err
	}
	from, ok := l.accounts[address]
	if !ok {
		l.mu.Unlock()
		return "", &account.NotFoundError{Address: address, Ledger: l.ver}
	}
	to, ok := l.accounts[p.To]
	if !ok {
		l.mu.Unlock()
		return "", &account.NotFoundError{Address: p.To, Ledger: l.ver}
	}
	if !from.activated || from.burned {
		l.mu.Unlock()
		return "", account.ClassifyResult(address, l.ver, "", "tx_failed", []string{account.OpNoTrust})
	}
	if from.balance < p.Amount.Units {
		l.mu.Unlock()
		return "", account.ClassifyResult(address, l.ver, "", "tx_failed", []string{account.OpUnderfunded})
	}

	from.balance -= p.Amount.Units
	to.balance += p.Amount.Units
	p.Hash = id.NewTransactionID().String()
	p.From = address
	p.CreatedAt = time.Now().UTC()

	var notify []func()
	for _, addr := range []string{address, p.To} {
		for _, fn := range collect(l.payments[addr]) {
			notify = append(notify, func() { fn(p) })
		}
		bal := types.Amount{Units: l.accounts[addr].balance, Scale: l.scale}
		for _, fn := range collect(l.balances[addr]) {
			notify = append(notify, func() { fn(bal) })
		}
	}
	l.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return p.Hash, nil
}

// IsAccountBurned implements account.Client.
func (l *Ledger) IsAccountBurned(_ context.Context, address string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.burnChecks++
	if l.errs.IsBurned != nil {
		return false, l.errs.IsBurned
	}
	a, ok := l.accounts[address]
	if !ok {
		return false, &account.NotFoundError{Address: address, Ledger: l.ver}
	}
	return a.burned, nil
}

// Burn implements account.Client.
func (l *Ledger) Burn(_ context.Context, address string) (string, error) {
	if l.BeforeBurn != nil {
		l.BeforeBurn()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.burns++
	if l.errs.Burn != nil {
		return "", l.errs.Burn
	}
	a, ok := l.accounts[address]
	if !ok {
		return "", &account.NotFoundError{Address: address, Ledger: l.ver}
	}
	if !a.activated {
		return "", &account.NotActivatedError{Address: address, Ledger: l.ver}
	}
	a.burned = true
	if l.BurnHash != nil {
		return *l.BurnHash, nil
	}
	return id.NewTransactionID().String(), nil
}

// AddAccountCreationListener implements account.Client.
func (l *Ledger) AddAccountCreationListener(address string, fn func()) account.Registration {
	return subscribe(l, l.created, address, fn)
}

// AddPaymentListener implements account.Client.
func (l *Ledger) AddPaymentListener(address string, fn func(account.Payment)) account.Registration {
	return subscribe(l, l.payments, address, fn)
}

// AddBalanceListener implements account.Client.
func (l *Ledger) AddBalanceListener(address string, fn func(types.Amount)) account.Registration {
	return subscribe(l, l.balances, address, fn)
}

type exportedKey struct {
	Address    string `json:"address"`
	Passphrase string `json:"passphrase"`
}

// Export implements account.Client. The result is not encrypted.
func (l *Ledger) Export(_ context.Context, address, passphrase string) (string, error) {
	l.mu.Lock()
	_, ok := l.accounts[address]
	l.mu.Unlock()
	if !ok {
		return "", &account.NotFoundError{Address: address, Ledger: l.ver}
	}
	b, err := json.Marshal(exportedKey{Address: address, Passphrase: passphrase})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// ImportAccount implements account.Client.
func (l *Ledger) ImportAccount(_ context.Context, exported, passphrase string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(exported)
	if err != nil {
		return "", err
	}
	var k exportedKey
	if err := json.Unmarshal(b, &k); err != nil {
		return "", err
	}
	if k.Passphrase != passphrase {
		return "", account.ErrInvalidPassphrase
	}
	return k.Address, nil
}

func subscribe[F any](l *Ledger, set map[string]map[int]F, address string, fn F) account.Registration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextListener++
	key := l.nextListener
	if set[address] == nil {
		set[address] = make(map[int]F)
	}
	set[address][key] = fn
	return account.NewRegistration(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(set[address], key)
	})
}

func collect[F any](m map[int]F) []F {
	out := make([]F, 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}
