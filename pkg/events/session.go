// Package events reconstructs flow instance state by replaying a session's
// event log. Replay is pure: no I/O, no clocks, and the same records always
// fold into the same state
package events

import (
	"github.com/kode4food/waypost/pkg/api"
)

// SessionState is the replayed view of one session: every flow instance
// discovered in the log, in discovery order
type SessionState struct {
	instances map[api.InstanceID]*api.FlowInstance
	order     []api.InstanceID
}

// NewSessionState creates an empty session state
func NewSessionState() *SessionState {
	return &SessionState{
		instances: map[api.InstanceID]*api.FlowInstance{},
	}
}

// Replay folds the given records into fresh session state
func Replay(evs []*api.Event) *SessionState {
	s := NewSessionState()
	for _, ev := range evs {
		s.Apply(ev)
	}
	return s
}

// Apply folds a single record into the state. Records of unknown kind and
// records referencing unknown instances are ignored
func (s *SessionState) Apply(ev *api.Event) {
	if ev == nil {
		return
	}
	if apply, ok := SessionAppliers[ev.Kind]; ok {
		apply(s, ev)
	}
}

// Get returns the instance with the given ID
func (s *SessionState) Get(id api.InstanceID) (*api.FlowInstance, bool) {
	inst, ok := s.instances[id]
	return inst, ok
}

// All returns every instance in discovery order
func (s *SessionState) All() []*api.FlowInstance {
	res := make([]*api.FlowInstance, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.instances[id])
	}
	return res
}

// Snapshot returns deep copies of every instance in discovery order, safe
// to hand across goroutine boundaries
func (s *SessionState) Snapshot() []*api.FlowInstance {
	res := make([]*api.FlowInstance, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.instances[id].Clone())
	}
	return res
}

// Len returns the number of instances discovered so far
func (s *SessionState) Len() int {
	return len(s.order)
}
