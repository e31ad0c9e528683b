package auth

import (
	"context"
	"sync"
)

// State enumerates the authentication states of one caller session.
// Unknown is distinct from Anonymous: callers must not make access decisions
// until the session has left Unknown.
type State int

const (
	// StateUnknown means the session has not yet been restored.
	StateUnknown State = iota
	// StateAnonymous means no identity is established.
	StateAnonymous
	// StateAuthenticated means an identity is established.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot pairs a session state with the identity holding when authenticated.
type Snapshot struct {
	State    State
	Identity Identity
}

// Session tracks the authenticated principal for one caller. It starts in
// Unknown until Restore resolves it; the only transition out of
// Authenticated is an explicit SignOut. Observers registered via Subscribe
// are notified on every transition.
type Session struct {
	svc *Service

	mu       sync.Mutex
	state    State
	identity Identity
	subs     map[int]chan Snapshot
	nextSub  int
}

// NewSession creates a session in the Unknown state.
func NewSession(svc *Service) *Session {
	return &Session{
		svc:  svc,
		subs: make(map[int]chan Snapshot),
	}
}

// Restore resolves the Unknown state from a previously minted session token.
// An empty or unverifiable token yields Anonymous.
func (s *Session) Restore(_ context.Context, token string) Snapshot {
	if token == "" {
		return s.transition(StateAnonymous, Identity{})
	}

	identity, err := s.svc.VerifyToken(token)
	if err != nil {
		return s.transition(StateAnonymous, Identity{})
	}

	return s.transition(StateAuthenticated, identity)
}

// Current returns the session's state and identity.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{State: s.state, Identity: s.identity}
}

// Subscribe registers an observer for state transitions. The returned cancel
// func must be called to release the subscription; the channel is buffered
// and transitions are dropped rather than blocking a slow observer.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 4)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}

	return ch, cancel
}

// Complete finishes the pending challenge for email with the presented
// capability. On success the session becomes Authenticated and the minted
// session token is returned; on failure the session state is unchanged.
func (s *Session) Complete(ctx context.Context, email, capability string) (Identity, string, error) {
	identity, token, err := s.svc.CompleteChallenge(ctx, email, capability)
	if err != nil {
		return Identity{}, "", err
	}

	s.transition(StateAuthenticated, identity)

	return identity, token, nil
}

// SignOut clears the current identity. Idempotent when already anonymous.
func (s *Session) SignOut() {
	s.transition(StateAnonymous, Identity{})
}

func (s *Session) transition(state State, identity Identity) Snapshot {
	s.mu.Lock()

	snap := Snapshot{State: state, Identity: identity}

	if s.state == state && s.identity == identity {
		s.mu.Unlock()

		return snap
	}

	s.state = state
	s.identity = identity

	subs := make([]chan Snapshot, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}

	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}

	return snap
}
