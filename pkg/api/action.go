package api

import "encoding/json"

type (
	// Action is an observed tool invocation as reported by the host: the
	// tool's name plus its raw input payload
	Action struct {
		Tool  string          `json:"tool"`
		Input json.RawMessage `json:"input,omitempty"`
	}

	// StepMatcher decides whether an observed action performs a given step
	// of a flow instance. Matchers are attached per definition and must be
	// safe for concurrent use; a matcher that cannot evaluate an action
	// reports no match
	StepMatcher interface {
		MatchStep(id StepID, act Action, fctx Context) bool
	}
)

// NewAction builds an action from a tool name and any JSON-encodable input
func NewAction(tool string, input any) Action {
	data, err := json.Marshal(input)
	if err != nil {
		return Action{Tool: tool}
	}
	return Action{Tool: tool, Input: data}
}
