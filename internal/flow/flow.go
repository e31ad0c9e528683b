package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/link"
	"go.uber.org/zap"
)

// State names the phases of one redirect flow invocation.
type State int

const (
	// StateResolving means the short id is being looked up.
	StateResolving State = iota
	// StateNeedsAuth means the visitor must complete a sign-in challenge.
	StateNeedsAuth
	// StateEvaluating means access is being decided for the identity.
	StateEvaluating
	// StateRedirecting is the terminal allow outcome.
	StateRedirecting
	// StateDenied is the terminal deny outcome.
	StateDenied
	// StateNotFound is the terminal unknown-short-id outcome, distinct
	// from an access denial.
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateNeedsAuth:
		return "needs_auth"
	case StateEvaluating:
		return "evaluating"
	case StateRedirecting:
		return "redirecting"
	case StateDenied:
		return "denied"
	case StateNotFound:
		return "not_found"
	default:
		return "invalid"
	}
}

// Outcome is the terminal result of a flow run.
type Outcome struct {
	State    State
	Location string // original URL, set when State is StateRedirecting
	Reason   string // denial reason, set when State is StateDenied
}

// Registry resolves short ids to link records.
type Registry interface {
	Resolve(ctx context.Context, id link.ShortID) (*link.Record, error)
}

// Config tunes flow behavior.
type Config struct {
	// WaitForAuth makes Run block in NeedsAuth until the session
	// authenticates. When false, an anonymous session terminates the run
	// with a NeedsAuth outcome so request-scoped callers can surface the
	// challenge step and retry after sign-in.
	WaitForAuth bool

	// Now overrides the evaluation clock. Defaults to time.Now.
	Now func() time.Time
}

// Flow orchestrates one redirect: resolve the record, gate on an
// authenticated identity, evaluate access, emit the outcome. A Flow is
// single-use; create one per invocation.
type Flow struct {
	registry  Registry
	evaluator *link.Evaluator
	session   *auth.Session
	cfg       Config
	logger    *zap.Logger

	state      State
	transition func(State)
}

// New creates a flow bound to one caller session.
func New(registry Registry, evaluator *link.Evaluator, session *auth.Session, cfg Config, logger *zap.Logger) *Flow {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Flow{
		registry:  registry,
		evaluator: evaluator,
		session:   session,
		cfg:       cfg,
		logger:    logger,
		state:     StateResolving,
	}
}

// OnTransition registers an observer invoked on every state change.
// Must be called before Run.
func (f *Flow) OnTransition(fn func(State)) {
	f.transition = fn
}

// State returns the flow's current state.
func (f *Flow) State() State {
	return f.state
}

// Run executes the flow for shortID. The record is resolved exactly once and
// the snapshot is reused for the rest of the invocation. Access is never
// evaluated while the session state is unknown. Cancelling ctx abandons the
// flow without invalidating any pending challenge.
func (f *Flow) Run(ctx context.Context, shortID link.ShortID) (Outcome, error) {
	f.enter(StateResolving)

	record, err := f.registry.Resolve(ctx, shortID)
	if err != nil {
		if errors.Is(err, link.ErrNotFound) {
			f.enter(StateNotFound)

			return Outcome{State: StateNotFound}, nil
		}

		return Outcome{}, fmt.Errorf("resolve %q: %w", shortID, err)
	}

	snap, terminal, err := f.waitForIdentity(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if terminal {
		return Outcome{State: StateNeedsAuth}, nil
	}

	f.enter(StateEvaluating)

	decision := f.evaluator.Evaluate(record, snap.Identity.Email, f.cfg.Now())
	if !decision.Allowed {
		f.enter(StateDenied)
		f.logger.Info("access denied",
			zap.String("shortId", string(shortID)),
			zap.String("email", snap.Identity.Email),
			zap.String("reason", decision.Reason),
		)

		return Outcome{State: StateDenied, Reason: decision.Reason}, nil
	}

	f.enter(StateRedirecting)

	return Outcome{State: StateRedirecting, Location: record.OriginalURL}, nil
}

// sessionPollInterval bounds how long a waiting flow can lag behind the
// session when a subscription notification is dropped.
const sessionPollInterval = 50 * time.Millisecond

// waitForIdentity blocks until the session reports an authenticated
// identity. The terminal result is true when the flow should stop in
// NeedsAuth instead of waiting. The wait converges on the session's state,
// not on notification delivery: subscription wakeups are only hints, and the
// state is re-read on every pass so a dropped notification costs at most one
// poll interval.
func (f *Flow) waitForIdentity(ctx context.Context) (auth.Snapshot, bool, error) {
	updates, cancel := f.session.Subscribe()
	defer cancel()

	ticker := time.NewTicker(sessionPollInterval)
	defer ticker.Stop()

	for {
		snap := f.session.Current()

		switch snap.State {
		case auth.StateAuthenticated:
			return snap, false, nil
		case auth.StateAnonymous:
			f.enter(StateNeedsAuth)

			if !f.cfg.WaitForAuth {
				return auth.Snapshot{}, true, nil
			}
		case auth.StateUnknown:
			// keep waiting; no access decision before the session resolves
		}

		select {
		case <-ctx.Done():
			return auth.Snapshot{}, false, ctx.Err()
		case _, ok := <-updates:
			if !ok {
				return auth.Snapshot{}, false, errors.New("session subscription closed")
			}
		case <-ticker.C:
		}
	}
}

func (f *Flow) enter(state State) {
	if f.state == state && state != StateResolving {
		return
	}

	f.state = state

	if f.transition != nil {
		f.transition(state)
	}
}
