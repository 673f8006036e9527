package catalog

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/kode4food/waypost/pkg/api"
)

type (
	// Rule describes one way a tool invocation can perform a step. Tool
	// restricts the rule to a tool name; Path extracts a value from the
	// action's input payload; Pattern and Equals test the extracted value.
	// Empty fields are not checked, so a rule with only a Tool matches
	// every invocation of that tool
	Rule struct {
		Tool    string
		Path    string
		Pattern string
		Equals  string
	}

	// RuleTable declares the rules for each step of a flow
	RuleTable map[api.StepID][]Rule

	// Rules is a declarative per-step matcher compiled from a RuleTable.
	// It satisfies api.StepMatcher and is safe for concurrent use
	Rules struct {
		steps map[api.StepID][]compiledRule
	}

	compiledRule struct {
		pattern *regexp.Regexp
		tool    string
		path    string
		equals  string
	}
)

var ErrBadPattern = errors.New("invalid rule pattern")

// NewRules compiles a rule table into a matcher. Patterns are compiled up
// front so a bad rule fails at registration, not at match time
func NewRules(table RuleTable) (*Rules, error) {
	steps := make(map[api.StepID][]compiledRule, len(table))
	for id, rules := range table {
		compiled := make([]compiledRule, 0, len(rules))
		for _, r := range rules {
			c := compiledRule{
				tool:   r.Tool,
				path:   r.Path,
				equals: r.Equals,
			}
			if r.Pattern != "" {
				p, err := regexp.Compile(r.Pattern)
				if err != nil {
					return nil, fmt.Errorf(
						"%w: step %s: %w", ErrBadPattern, id, err,
					)
				}
				c.pattern = p
			}
			compiled = append(compiled, c)
		}
		steps[id] = compiled
	}
	return &Rules{steps: steps}, nil
}

// MustRules compiles a rule table and panics on error. Intended for the
// static tables of built-in flows
func MustRules(table RuleTable) *Rules {
	m, err := NewRules(table)
	if err != nil {
		panic(err)
	}
	return m
}

// MatchStep reports whether the action satisfies any of the step's rules.
// Steps without rules never match; they complete through explicit calls
func (m *Rules) MatchStep(id api.StepID, act api.Action, _ api.Context) bool {
	for _, r := range m.steps[id] {
		if r.matches(act) {
			return true
		}
	}
	return false
}

func (r compiledRule) matches(act api.Action) bool {
	if r.tool != "" && r.tool != act.Tool {
		return false
	}
	value := ""
	if r.path != "" {
		res := gjson.GetBytes(act.Input, r.path)
		if !res.Exists() {
			return false
		}
		value = res.String()
	}
	if r.equals != "" && value != r.equals {
		return false
	}
	if r.pattern != nil && !r.pattern.MatchString(value) {
		return false
	}
	return true
}
