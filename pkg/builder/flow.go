package builder

import (
	"slices"

	"github.com/kode4food/waypost/pkg/api"
)

// Flow builds a flow definition
type Flow struct {
	id             api.FlowID
	name           string
	steps          []*Step
	completionStep api.StepID
	blocking       bool
}

// NewFlow creates a flow builder, deriving the flow ID from the name
func NewFlow(name string) *Flow {
	return &Flow{
		id:   api.FlowID(toKebabCase(name)),
		name: name,
	}
}

// WithID overrides the derived flow ID
func (f *Flow) WithID(id api.FlowID) *Flow {
	res := *f
	res.id = id
	return &res
}

// WithSteps appends steps in their expected order
func (f *Flow) WithSteps(steps ...*Step) *Flow {
	res := *f
	res.steps = append(slices.Clone(f.steps), steps...)
	return &res
}

// WithCompletionStep names the step whose completion finishes the flow
// regardless of what else is pending
func (f *Flow) WithCompletionStep(id api.StepID) *Flow {
	res := *f
	res.completionStep = id
	return &res
}

// BlockingOnSessionEnd marks unfinished instances of the flow as holding
// the session open
func (f *Flow) BlockingOnSessionEnd() *Flow {
	res := *f
	res.blocking = true
	return &res
}

// Definition assembles and validates the flow definition. Orders are
// assigned from chain position; a step naming an earlier step as a
// parallel peer shares that peer's order
func (f *Flow) Definition() (*api.Definition, error) {
	steps := make([]*api.Step, len(f.steps))
	orders := make(map[api.StepID]int, len(f.steps))
	next := 0
	for i, sb := range f.steps {
		order := -1
		for _, peer := range sb.parallelWith {
			if o, ok := orders[peer]; ok {
				order = o
				break
			}
		}
		if order < 0 {
			order = next
			next++
		}
		steps[i] = sb.build(order)
		orders[sb.id] = order
	}

	def := &api.Definition{
		ID:                   f.id,
		Name:                 f.name,
		Steps:                steps,
		CompletionStep:       f.completionStep,
		BlockingOnSessionEnd: f.blocking,
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// MustDefinition assembles the definition, panicking when it does not
// validate. Intended for definitions known at compile time
func (f *Flow) MustDefinition() *api.Definition {
	def, err := f.Definition()
	if err != nil {
		panic(err)
	}
	return def
}
