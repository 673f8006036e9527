// Package api defines the core data types for the flow tracking engine
//
// This package contains all the shared types used across the tracker,
// including step and flow definitions, derived instance state, log events,
// and the matcher contract that binds observed tool actions to steps
package api
