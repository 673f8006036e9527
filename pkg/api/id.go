package api

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	// FlowID is a unique identifier for a flow definition
	FlowID string

	// StepID is a unique identifier for a step within a flow
	StepID string

	// InstanceID is a unique identifier for a started flow instance
	InstanceID string

	// SessionID identifies one agent session and its event log
	SessionID string

	// StepRef identifies a step completion within a flow instance
	StepRef struct {
		InstanceID InstanceID `json:"instance_id"`
		FlowID     FlowID     `json:"flow_id"`
		StepID     StepID     `json:"step_id"`
	}
)

// InvalidIDChars matches characters not permitted in flow, step, and session
// IDs. Valid characters are: letters, digits, underscore, dot, hyphen, plus,
// space
var InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}

// NewInstanceID mints a globally unique instance identifier. The time and
// random components keep IDs distinct even for same-millisecond starts in
// separate processes, and the session fragment ties the ID to its log
func NewInstanceID(flow FlowID, session SessionID, ts time.Time) InstanceID {
	random := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	fragment := SanitizeID(string(session))
	if len(fragment) > 4 {
		fragment = fragment[:4]
	}
	if fragment == "" {
		fragment = "anon"
	}
	return InstanceID(fmt.Sprintf(
		"%s-%d-%s-%s", flow, ts.UnixMilli(), random, fragment,
	))
}
