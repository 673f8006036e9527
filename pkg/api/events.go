package api

import (
	"errors"
	"fmt"
	"time"
)

type (
	// EventKind discriminates the records of a session event log
	EventKind string

	// Event is a single self-describing record in a session's append-only
	// log. One flat shape covers all kinds; fields not meaningful for a
	// kind are omitted from the encoding
	Event struct {
		Context       Context    `json:"context,omitempty"`
		ExpectedSteps []StepID   `json:"expected_steps,omitempty"`
		Timestamp     time.Time  `json:"timestamp"`
		Kind          EventKind  `json:"kind"`
		SessionID     SessionID  `json:"session_id"`
		InstanceID    InstanceID `json:"instance_id"`
		FlowID        FlowID     `json:"flow_id,omitempty"`
		FlowName      string     `json:"flow_name,omitempty"`
		StepID        StepID     `json:"step_id,omitempty"`
	}
)

const (
	// EventFlowStarted records a new flow instance with its expected steps
	// and start context
	EventFlowStarted EventKind = "flow_started"

	// EventStepCompleted records one completion of a step
	EventStepCompleted EventKind = "step_completed"

	// EventFlowCompleted records that the whole flow finished
	EventFlowCompleted EventKind = "flow_completed"
)

var (
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrNoInstanceID     = errors.New("event missing instance ID")
	ErrNoSessionID      = errors.New("event missing session ID")
	ErrNoFlowID         = errors.New("event missing flow ID")
	ErrNoStepID         = errors.New("event missing step ID")
)

// Validate checks that a record carries the fields replay depends on.
// Readers drop records that fail validation rather than aborting
func (e *Event) Validate() error {
	switch e.Kind {
	case EventFlowStarted:
		if e.FlowID == "" {
			return ErrNoFlowID
		}
	case EventStepCompleted:
		if e.StepID == "" {
			return ErrNoStepID
		}
	case EventFlowCompleted:
		// envelope fields only
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEventKind, e.Kind)
	}
	if e.InstanceID == "" {
		return ErrNoInstanceID
	}
	if e.SessionID == "" {
		return ErrNoSessionID
	}
	return nil
}
