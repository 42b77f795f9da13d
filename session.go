package migrator

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/state"
)

// Session is one accepted call to Start. It holds the single-flight token
// from acceptance until its terminal callback has been invoked.
type Session struct {
	id        id.SessionID
	startedAt time.Time
	done      chan struct{}

	mu      sync.Mutex
	address string
	state   state.State
	path    state.Path
	handle  *account.Handle
	err     error
}

func newSession(address string) *Session {
	return &Session{
		id:        id.NewSessionID(),
		startedAt: time.Now().UTC(),
		done:      make(chan struct{}),
		address:   address,
		state:     state.Idle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() id.SessionID { return s.id }

// StartedAt returns when the session was accepted.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Address returns the account address. It is empty until a session started
// without one has looked up the local account.
func (s *Session) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// State returns the step the session is in.
func (s *Session) State() state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path returns the branch taken after resolution, or 0 before that.
func (s *Session) Path() state.Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Done is closed after the terminal callback returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the failure, once the session has failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the session finishes or ctx ends. It must not be
// called from inside the session's own callbacks.
func (s *Session) Wait(ctx context.Context) (*account.Handle, error) {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.handle, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) setAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
}

func (s *Session) setState(st state.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func (s *Session) setPath(p state.Path, st state.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = p
	s.state = st
}

func (s *Session) complete(h *account.Handle, err error) (failedIn state.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	failedIn = s.state
	s.handle = h
	s.err = err
	if err != nil {
		s.state = state.Failed
	} else {
		s.state = state.Ready
	}
	return failedIn
}
