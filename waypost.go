// Package waypost tracks multi-step development workflows across the
// short-lived processes of an agent session, persisting progress as
// append-only event logs and reconstructing state by replay.
package waypost

const (
	// Name is the service name reported in logs
	Name = "waypost"

	// Version is the release version of this build
	Version = "0.2.0"
)
