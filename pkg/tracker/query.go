package tracker

import (
	"context"
	"log/slog"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/log"
)

// FlowStatus returns a snapshot of one instance's replayed state
func (t *Tracker) FlowStatus(
	ctx context.Context, instanceID api.InstanceID, session api.SessionID,
) (*api.FlowInstance, bool) {
	st := t.replay(ctx, t.resolveSession(session))
	inst, ok := st.Get(instanceID)
	if !ok {
		return nil, false
	}
	return inst.Clone(), true
}

// SessionFlows returns every instance in the session, finished or not, in
// the order their started records appear in the log
func (t *Tracker) SessionFlows(
	ctx context.Context, session api.SessionID,
) []*api.FlowInstance {
	st := t.replay(ctx, t.resolveSession(session))
	var res []*api.FlowInstance
	for _, inst := range st.All() {
		res = append(res, inst.Clone())
	}
	return res
}

// IncompleteFlows returns the session's incomplete instances in the order
// their started records appear in the log
func (t *Tracker) IncompleteFlows(
	ctx context.Context, session api.SessionID,
) []*api.FlowInstance {
	st := t.replay(ctx, t.resolveSession(session))
	var res []*api.FlowInstance
	for _, inst := range st.All() {
		if inst.Complete {
			continue
		}
		res = append(res, inst.Clone())
	}
	return res
}

// BlockingIncomplete filters IncompleteFlows down to instances whose
// definitions declare that unfinished work should hold the session open
func (t *Tracker) BlockingIncomplete(
	ctx context.Context, session api.SessionID,
) []*api.FlowInstance {
	var res []*api.FlowInstance
	for _, inst := range t.IncompleteFlows(ctx, session) {
		def, ok := t.reg.Get(inst.FlowID)
		if !ok || !def.BlockingOnSessionEnd {
			continue
		}
		res = append(res, inst)
	}
	return res
}

// CheckFlowCompletion reports whether an instance currently satisfies its
// completion rule. Unknown instances report false
func (t *Tracker) CheckFlowCompletion(
	ctx context.Context, instanceID api.InstanceID, session api.SessionID,
) bool {
	st := t.replay(ctx, t.resolveSession(session))
	inst, ok := st.Get(instanceID)
	return ok && inst.Complete
}

// ActiveFlowForContext returns the most recently started incomplete
// instance of a flow whose context structurally equals the given one
func (t *Tracker) ActiveFlowForContext(
	ctx context.Context, flowID api.FlowID, fctx api.Context,
	session api.SessionID,
) (api.InstanceID, bool) {
	st := t.replay(ctx, t.resolveSession(session))
	return findActive(st, flowID, fctx)
}

// Sessions lists the session IDs that have a log under the store root
func (t *Tracker) Sessions(ctx context.Context) []api.SessionID {
	ids, err := t.store.Sessions(ctx)
	if err != nil {
		slog.Warn("Failed to list session logs", log.Error(err))
		return nil
	}
	return ids
}
