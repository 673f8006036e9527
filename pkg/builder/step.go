package builder

import (
	"regexp"
	"slices"
	"strings"

	"github.com/kode4food/waypost/pkg/api"
)

// Step builds one step of a flow definition
type Step struct {
	id           api.StepID
	name         string
	phase        string
	condition    string
	parallelWith []api.StepID
	dependsOn    []api.StepID
	required     bool
	blocking     bool
	repeatable   bool
}

var (
	camelCaseRegex = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	delimiterRegex = regexp.MustCompile(`[\s_]+`)
)

// NewStep creates a step builder, deriving the step ID from the name
func NewStep(name string) *Step {
	return &Step{
		id:   api.StepID(toKebabCase(name)),
		name: name,
	}
}

// WithID overrides the derived step ID
func (s *Step) WithID(id api.StepID) *Step {
	res := *s
	res.id = id
	return &res
}

// WithPhase labels the step with a phase name for grouping in reports
func (s *Step) WithPhase(phase string) *Step {
	res := *s
	res.phase = phase
	return &res
}

// WithCondition gates the step on a context key; when the key is falsy in
// the instance context the step is not expected
func (s *Step) WithCondition(key string) *Step {
	res := *s
	res.condition = key
	return &res
}

// Required marks the step as necessary for flow completion
func (s *Step) Required() *Step {
	res := *s
	res.required = true
	return &res
}

// Blocking marks the step as suspending forward progress until done
func (s *Step) Blocking() *Step {
	res := *s
	res.blocking = true
	return &res
}

// Repeatable allows the step to complete more than once
func (s *Step) Repeatable() *Step {
	res := *s
	res.repeatable = true
	return &res
}

// DependsOn declares hard prerequisites
func (s *Step) DependsOn(ids ...api.StepID) *Step {
	res := *s
	res.dependsOn = slices.Clone(ids)
	return &res
}

// ParallelWith declares peers the step may run concurrently with. When a
// peer appears earlier in the flow, this step adopts its order
func (s *Step) ParallelWith(ids ...api.StepID) *Step {
	res := *s
	res.parallelWith = slices.Clone(ids)
	return &res
}

func (s *Step) build(order int) *api.Step {
	return &api.Step{
		ID:           s.id,
		Name:         s.name,
		Phase:        s.phase,
		Condition:    s.condition,
		Order:        order,
		Required:     s.required,
		Blocking:     s.blocking,
		Repeatable:   s.repeatable,
		ParallelWith: slices.Clone(s.parallelWith),
		DependsOn:    slices.Clone(s.dependsOn),
	}
}

func toKebabCase(s string) string {
	s = camelCaseRegex.ReplaceAllString(s, "$1-$2")
	s = delimiterRegex.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}
