package tracker

import (
	"context"

	"github.com/kode4food/waypost/pkg/api"
)

// RecordAction inspects one observed tool invocation against every
// incomplete instance in the session and completes the steps the flow's
// matcher recognizes. Matching is evaluated against the state before the
// action; a single action may therefore complete several steps, across
// instances or within one. Steps already completed are only matched again
// when marked repeatable. The completed step references are returned in
// instance discovery order
func (t *Tracker) RecordAction(
	ctx context.Context, act api.Action, session api.SessionID,
) []api.StepRef {
	session = t.resolveSession(session)
	st := t.replay(ctx, session)

	var res []api.StepRef
	for _, inst := range st.All() {
		if inst.Complete {
			continue
		}
		def, ok := t.reg.Get(inst.FlowID)
		if !ok {
			continue
		}
		m := def.Matcher()
		if m == nil {
			continue
		}
		for _, step := range def.Steps {
			if inst.HasCompleted(step.ID) && !step.Repeatable {
				continue
			}
			if !m.MatchStep(step.ID, act, inst.Context) {
				continue
			}
			if t.CompleteStep(ctx, inst.InstanceID, step.ID, session) {
				res = append(res, api.StepRef{
					InstanceID: inst.InstanceID,
					FlowID:     inst.FlowID,
					StepID:     step.ID,
				})
			}
		}
	}
	return res
}
