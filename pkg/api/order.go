package api

import (
	"fmt"
	"slices"
)

// ValidateStepOrder reports whether completing the candidate step now would
// respect the definition's ordering. Violations are advisory: callers log
// or surface the message but never prevent the completion from being
// recorded. A step is out of order when one of its dependencies has not
// completed, or when an earlier required blocking step is still pending and
// the two are not parallel peers
func (d *Definition) ValidateStepOrder(
	completed StepSet, candidate StepID,
) (bool, string) {
	step := d.Step(candidate)
	if step == nil {
		return false, fmt.Sprintf("unknown step: %s", candidate)
	}

	for _, dep := range step.DependsOn {
		if !completed.Contains(dep) {
			return false, fmt.Sprintf("step %s requires %s", candidate, dep)
		}
	}

	for _, other := range d.Steps {
		if other.ID == candidate || other.Order >= step.Order {
			continue
		}
		if step.IsParallelWith(other.ID) || other.IsParallelWith(candidate) {
			continue
		}
		if !other.Required {
			continue
		}
		if other.Blocking && !completed.Contains(other.ID) {
			return false, fmt.Sprintf(
				"step %s (order %d) cannot complete before blocking step %s (order %d)",
				candidate, step.Order, other.ID, other.Order,
			)
		}
	}
	return true, ""
}

// CanSkipStep reports whether a step may be skipped for an instance started
// with the given context: the step must not be required, and when it names
// a condition the context key must be falsy
func (d *Definition) CanSkipStep(id StepID, fctx Context) bool {
	step := d.Step(id)
	if step == nil {
		return false
	}
	if step.Required {
		return false
	}
	if step.Condition == "" {
		return true
	}
	return !fctx.Truthy(step.Condition)
}

// PendingRequiredSteps returns the required steps not yet completed,
// ordered by their order values
func (d *Definition) PendingRequiredSteps(completed StepSet) []*Step {
	var pending []*Step
	for _, s := range d.Steps {
		if s.Required && !completed.Contains(s.ID) {
			pending = append(pending, s)
		}
	}
	slices.SortStableFunc(pending, func(a, b *Step) int {
		return a.Order - b.Order
	})
	return pending
}
