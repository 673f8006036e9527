// Package server implements the read-only HTTP API over the monitor
//
// This package provides REST endpoints for inspecting registered flows and
// session state, plus a WebSocket feed of live log updates. It never
// writes events; trackers embedded in host processes own the logs
package server
