package api

import (
	"maps"
	"slices"
	"time"
)

// FlowInstance is the derived state of one started flow. Instances are
// never persisted directly; they are reconstructed from a session's event
// log on every read
type FlowInstance struct {
	Context            Context        `json:"context,omitempty"`
	StepCounts         map[StepID]int `json:"step_counts,omitempty"`
	ExpectedSteps      []StepID       `json:"expected_steps"`
	CompletedSteps     []StepID       `json:"completed_steps"`
	PendingSteps       []StepID       `json:"pending_steps"`
	StartedAt          time.Time      `json:"started_at"`
	LastEventAt        time.Time      `json:"last_event_at"`
	InstanceID         InstanceID     `json:"instance_id"`
	FlowID             FlowID         `json:"flow_id"`
	FlowName           string         `json:"flow_name,omitempty"`
	SessionID          SessionID      `json:"session_id"`
	Complete           bool           `json:"complete"`
	CompletionRecorded bool           `json:"completion_recorded,omitempty"`
}

// HasCompleted reports whether the step has completed at least once
func (i *FlowInstance) HasCompleted(id StepID) bool {
	return slices.Contains(i.CompletedSteps, id)
}

// CompletedSet returns the completed steps as a set
func (i *FlowInstance) CompletedSet() StepSet {
	return NewStepSet(i.CompletedSteps...)
}

// IsComplete evaluates the completion rule against an optional definition:
// an explicit completion event wins; otherwise a completed completion step
// finishes the flow early; otherwise every expected step must have
// completed. Passing a nil definition skips the completion-step clause,
// which covers flows whose definitions are no longer registered
func (i *FlowInstance) IsComplete(def *Definition) bool {
	if i.CompletionRecorded {
		return true
	}
	if def != nil && def.CompletionStep != "" &&
		i.HasCompleted(def.CompletionStep) {
		return true
	}
	return len(i.PendingSteps) == 0
}

// Clone returns a deep copy safe to hand across goroutine boundaries
func (i *FlowInstance) Clone() *FlowInstance {
	res := *i
	res.Context = maps.Clone(i.Context)
	res.StepCounts = maps.Clone(i.StepCounts)
	res.ExpectedSteps = slices.Clone(i.ExpectedSteps)
	res.CompletedSteps = slices.Clone(i.CompletedSteps)
	res.PendingSteps = slices.Clone(i.PendingSteps)
	return &res
}
