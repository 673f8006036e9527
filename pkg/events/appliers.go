package events

import (
	"slices"

	"github.com/kode4food/waypost/pkg/api"
)

// Applier folds one event kind into session state
type Applier func(*SessionState, *api.Event)

// SessionAppliers dispatches each event kind to its fold function. Kinds
// not listed here are skipped, so logs written by newer builds still
// replay on older ones
var SessionAppliers = map[api.EventKind]Applier{
	api.EventFlowStarted:   applyFlowStarted,
	api.EventStepCompleted: applyStepCompleted,
	api.EventFlowCompleted: applyFlowCompleted,
}

func applyFlowStarted(s *SessionState, ev *api.Event) {
	// instance ids are unique by construction; a repeated start for the
	// same id replaces the entry rather than merging into it
	if _, ok := s.instances[ev.InstanceID]; !ok {
		s.order = append(s.order, ev.InstanceID)
	}
	s.instances[ev.InstanceID] = &api.FlowInstance{
		Context:       ev.Context,
		StepCounts:    map[api.StepID]int{},
		ExpectedSteps: slices.Clone(ev.ExpectedSteps),
		PendingSteps:  slices.Clone(ev.ExpectedSteps),
		StartedAt:     ev.Timestamp,
		LastEventAt:   ev.Timestamp,
		InstanceID:    ev.InstanceID,
		FlowID:        ev.FlowID,
		FlowName:      ev.FlowName,
		SessionID:     ev.SessionID,
	}
}

func applyStepCompleted(s *SessionState, ev *api.Event) {
	inst, ok := s.instances[ev.InstanceID]
	if !ok {
		return
	}
	inst.StepCounts[ev.StepID]++
	if !inst.HasCompleted(ev.StepID) {
		inst.CompletedSteps = append(inst.CompletedSteps, ev.StepID)
		inst.PendingSteps = slices.DeleteFunc(inst.PendingSteps,
			func(id api.StepID) bool {
				return id == ev.StepID
			})
	}
	inst.LastEventAt = ev.Timestamp
}

func applyFlowCompleted(s *SessionState, ev *api.Event) {
	inst, ok := s.instances[ev.InstanceID]
	if !ok {
		return
	}
	inst.CompletionRecorded = true
	inst.LastEventAt = ev.Timestamp
}
