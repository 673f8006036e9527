package api

import (
	"errors"
	"fmt"
)

type (
	// Definition describes a multi-step workflow the agent is expected to
	// follow. Definitions are registered once at process start and treated
	// as immutable afterward
	Definition struct {
		matcher              StepMatcher
		Steps                []*Step `json:"steps"`
		ID                   FlowID  `json:"id"`
		Name                 string  `json:"name"`
		CompletionStep       StepID  `json:"completion_step,omitempty"`
		BlockingOnSessionEnd bool    `json:"blocking_on_session_end,omitempty"`
	}
)

var (
	ErrFlowIDEmpty       = errors.New("flow ID empty")
	ErrFlowNameEmpty     = errors.New("flow name empty")
	ErrFlowStepsEmpty    = errors.New("flow has no steps")
	ErrDuplicateStep     = errors.New("duplicate step ID")
	ErrUnknownStepRef    = errors.New("reference to unknown step")
	ErrParallelOrderSkew = errors.New("parallel steps must share an order")
	ErrUnknownCompletion = errors.New("completion step not defined")
)

// Validate checks that a flow definition is internally consistent: step IDs
// are unique, cross-references resolve, and parallel peers share an order
func (d *Definition) Validate() error {
	if d.ID == "" {
		return ErrFlowIDEmpty
	}
	if d.Name == "" {
		return fmt.Errorf("%w: %s", ErrFlowNameEmpty, d.ID)
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: %s", ErrFlowStepsEmpty, d.ID)
	}

	byID := make(map[StepID]*Step, len(d.Steps))
	for _, s := range d.Steps {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, ok := byID[s.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, s.ID)
		}
		byID[s.ID] = s
	}

	for _, s := range d.Steps {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownStepRef, s.ID, dep)
			}
		}
		for _, peer := range s.ParallelWith {
			p, ok := byID[peer]
			if !ok {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownStepRef, s.ID, peer)
			}
			if p.Order != s.Order {
				return fmt.Errorf(
					"%w: %s (%d) and %s (%d)",
					ErrParallelOrderSkew, s.ID, s.Order, peer, p.Order,
				)
			}
		}
	}

	if d.CompletionStep != "" {
		if _, ok := byID[d.CompletionStep]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCompletion, d.CompletionStep)
		}
	}
	return nil
}

// Step returns the step with the given ID, or nil if not defined
func (d *Definition) Step(id StepID) *Step {
	for _, s := range d.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// StepIDs returns the IDs of all steps in definition order
func (d *Definition) StepIDs() []StepID {
	ids := make([]StepID, len(d.Steps))
	for i, s := range d.Steps {
		ids[i] = s.ID
	}
	return ids
}

// Matcher returns the step matcher attached to this definition, or nil when
// the flow relies entirely on explicit completion calls
func (d *Definition) Matcher() StepMatcher {
	return d.matcher
}

// WithMatcher attaches a step matcher and returns the definition for
// registration chaining
func (d *Definition) WithMatcher(m StepMatcher) *Definition {
	d.matcher = m
	return d
}
