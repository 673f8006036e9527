package tracker

import (
	"context"
	"log/slog"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/log"
)

// CompleteStep records one completion of a step against an instance.
// Ordering is never enforced at write time; an out-of-order completion is
// logged as a diagnostic and recorded all the same. When the completion
// satisfies the flow's completion rule, a finished record follows exactly
// once. Completions against unknown instances are dropped
func (t *Tracker) CompleteStep(
	ctx context.Context, instanceID api.InstanceID, stepID api.StepID,
	session api.SessionID,
) bool {
	session = t.resolveSession(session)
	st := t.replay(ctx, session)
	inst, ok := st.Get(instanceID)
	if !ok {
		slog.Debug("Step completion for unknown instance dropped",
			log.InstanceID(instanceID),
			log.StepID(stepID),
			log.SessionID(session))
		return false
	}

	if def, ok := t.reg.Get(inst.FlowID); ok {
		if valid, msg := def.ValidateStepOrder(
			inst.CompletedSet(), stepID,
		); !valid {
			slog.Warn("Step completed out of order",
				log.InstanceID(instanceID),
				log.StepID(stepID),
				slog.String("detail", msg))
		}
	}

	ev := &api.Event{
		Kind:       api.EventStepCompleted,
		SessionID:  session,
		Timestamp:  t.clock(),
		InstanceID: instanceID,
		FlowID:     inst.FlowID,
		StepID:     stepID,
	}
	if err := t.store.Append(ctx, ev); err != nil {
		slog.Error("Failed to record step completion",
			log.InstanceID(instanceID),
			log.StepID(stepID),
			log.Error(err))
		return false
	}

	// Fold the appended record into the state already in hand rather than
	// re-reading the log; the result is the same replay would produce
	st.Apply(ev)
	t.finalize(inst)
	if inst.Complete && !inst.CompletionRecorded {
		t.recordCompletion(ctx, session, instanceID)
	}
	return true
}

// CompleteFlow marks an instance finished regardless of pending steps.
// Completing an already finished instance is a no-op that reports success
func (t *Tracker) CompleteFlow(
	ctx context.Context, instanceID api.InstanceID, session api.SessionID,
) bool {
	session = t.resolveSession(session)
	st := t.replay(ctx, session)
	inst, ok := st.Get(instanceID)
	if !ok {
		slog.Debug("Flow completion for unknown instance dropped",
			log.InstanceID(instanceID),
			log.SessionID(session))
		return false
	}
	if inst.CompletionRecorded {
		return true
	}
	return t.recordCompletion(ctx, session, instanceID)
}

func (t *Tracker) recordCompletion(
	ctx context.Context, session api.SessionID, instanceID api.InstanceID,
) bool {
	ev := &api.Event{
		Kind:       api.EventFlowCompleted,
		SessionID:  session,
		Timestamp:  t.clock(),
		InstanceID: instanceID,
	}
	if err := t.store.Append(ctx, ev); err != nil {
		slog.Error("Failed to record flow completion",
			log.InstanceID(instanceID),
			log.SessionID(session),
			log.Error(err))
		return false
	}
	slog.Info("Flow completed",
		log.InstanceID(instanceID),
		log.SessionID(session))
	return true
}
