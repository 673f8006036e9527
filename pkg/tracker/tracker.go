// Package tracker implements the flow lifecycle over a session event log:
// starting flows, recording step completions, and answering queries by
// replaying the log. Every operation re-reads the log from disk; nothing is
// cached between calls, so the short-lived processes of a session always
// see each other's appends.
//
// Operations never return errors. The tracker sits inside the host's tool
// pipeline, so every failure is logged and degrades to a no-op result
package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/kode4food/waypost/internal/eventlog"
	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/catalog"
	"github.com/kode4food/waypost/pkg/events"
	"github.com/kode4food/waypost/pkg/log"
)

type (
	// Tracker coordinates flow lifecycle for the sessions of one log root.
	// Methods taking a session ID treat the empty string as the tracker's
	// configured default session
	Tracker struct {
		reg     *catalog.Registry
		store   *eventlog.Store
		clock   func() time.Time
		session api.SessionID
	}

	// Option configures a Tracker
	Option func(*Tracker)
)

// DefaultSession is used when no session is configured or supplied
const DefaultSession = api.SessionID("default")

// New creates a Tracker over a definition registry and an event log store
func New(reg *catalog.Registry, store *eventlog.Store, opts ...Option) *Tracker {
	t := &Tracker{
		reg:     reg,
		store:   store,
		clock:   time.Now,
		session: DefaultSession,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithClock replaces the wall clock used for event timestamps
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// WithSession sets the session used when operations pass an empty ID
func WithSession(id api.SessionID) Option {
	return func(t *Tracker) {
		if id != "" {
			t.session = id
		}
	}
}

// Registry returns the definition registry this tracker consults
func (t *Tracker) Registry() *catalog.Registry {
	return t.reg
}

func (t *Tracker) resolveSession(id api.SessionID) api.SessionID {
	if id == "" {
		return t.session
	}
	return id
}

// replay loads and folds the session's log. A read failure is logged and
// the records read before the failure still apply; the caller sees the
// best state reachable from the readable prefix
func (t *Tracker) replay(
	ctx context.Context, session api.SessionID,
) *events.SessionState {
	evs, err := t.store.ReadSession(ctx, session)
	if err != nil {
		slog.Warn("Session log read failed, replaying readable prefix",
			log.SessionID(session),
			log.Error(err))
	}
	st := events.Replay(evs)
	for _, inst := range st.All() {
		t.finalize(inst)
	}
	return st
}

// finalize evaluates the completion rule for an instance, tolerating
// definitions that are no longer registered
func (t *Tracker) finalize(inst *api.FlowInstance) {
	def, _ := t.reg.Get(inst.FlowID)
	inst.Complete = inst.IsComplete(def)
}

// findActive locates the most recently started incomplete instance of a
// flow whose context structurally equals the given one
func findActive(
	st *events.SessionState, flowID api.FlowID, fctx api.Context,
) (api.InstanceID, bool) {
	all := st.All()
	for i := len(all) - 1; i >= 0; i-- {
		inst := all[i]
		if inst.FlowID != flowID || inst.Complete {
			continue
		}
		if inst.Context.Equal(fctx) {
			return inst.InstanceID, true
		}
	}
	return "", false
}
