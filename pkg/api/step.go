package api

import (
	"errors"
	"fmt"
	"slices"
)

type (
	// Step describes one expected action within a flow definition
	Step struct {
		ParallelWith []StepID `json:"parallel_with,omitempty"`
		DependsOn    []StepID `json:"depends_on,omitempty"`
		ID           StepID   `json:"id"`
		Name         string   `json:"name"`
		Condition    string   `json:"condition,omitempty"`
		Phase        string   `json:"phase,omitempty"`
		Order        int      `json:"order"`
		Required     bool     `json:"required,omitempty"`
		Blocking     bool     `json:"blocking,omitempty"`
		Repeatable   bool     `json:"repeatable,omitempty"`
	}

	// StepSet tracks step membership for completion checks
	StepSet map[StepID]struct{}
)

var (
	ErrStepIDEmpty   = errors.New("step ID empty")
	ErrStepNameEmpty = errors.New("step name empty")
	ErrNegativeOrder = errors.New("step order negative")
	ErrSelfReference = errors.New("step references itself")
)

// Validate checks that a step definition is internally consistent
func (s *Step) Validate() error {
	if s.ID == "" {
		return ErrStepIDEmpty
	}
	if s.Name == "" {
		return fmt.Errorf("%w: %s", ErrStepNameEmpty, s.ID)
	}
	if s.Order < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeOrder, s.ID)
	}
	if slices.Contains(s.ParallelWith, s.ID) ||
		slices.Contains(s.DependsOn, s.ID) {
		return fmt.Errorf("%w: %s", ErrSelfReference, s.ID)
	}
	return nil
}

// IsParallelWith reports whether this step declares the other step as a
// parallel peer
func (s *Step) IsParallelWith(other StepID) bool {
	return slices.Contains(s.ParallelWith, other)
}

// NewStepSet creates a set containing the given step IDs
func NewStepSet(ids ...StepID) StepSet {
	s := make(StepSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add adds a step ID to the set
func (s StepSet) Add(id StepID) {
	s[id] = struct{}{}
}

// Contains returns true if the step ID exists in the set
func (s StepSet) Contains(id StepID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of steps in the set
func (s StepSet) Len() int {
	return len(s)
}
