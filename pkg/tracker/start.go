package tracker

import (
	"context"
	"log/slog"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/log"
)

// StartFlow begins tracking a flow for the given context, appending a
// started record and returning the new instance ID. If an incomplete
// instance of the same flow already exists with a structurally equal
// context, its ID is returned instead and nothing is appended. Starting an
// unregistered flow reports false
func (t *Tracker) StartFlow(
	ctx context.Context, flowID api.FlowID, fctx api.Context,
	session api.SessionID,
) (api.InstanceID, bool) {
	session = t.resolveSession(session)
	st := t.replay(ctx, session)
	if id, ok := findActive(st, flowID, fctx); ok {
		slog.Debug("Reusing in-progress flow instance",
			log.FlowID(flowID),
			log.InstanceID(id),
			log.SessionID(session))
		return id, true
	}

	def, ok := t.reg.Get(flowID)
	if !ok {
		slog.Warn("Ignoring start of unregistered flow",
			log.FlowID(flowID),
			log.SessionID(session))
		return "", false
	}

	now := t.clock()
	id := api.NewInstanceID(flowID, session, now)
	ev := &api.Event{
		Kind:          api.EventFlowStarted,
		SessionID:     session,
		Timestamp:     now,
		InstanceID:    id,
		FlowID:        flowID,
		FlowName:      def.Name,
		ExpectedSteps: def.StepIDs(),
		Context:       fctx,
	}
	if err := t.store.Append(ctx, ev); err != nil {
		slog.Error("Failed to record flow start",
			log.FlowID(flowID),
			log.SessionID(session),
			log.Error(err))
		return "", false
	}
	slog.Info("Flow started",
		log.FlowID(flowID),
		log.InstanceID(id),
		log.SessionID(session))
	return id, true
}
