package api

type (
	// FlowDigest summarizes a registered flow definition
	FlowDigest struct {
		ID             FlowID `json:"id"`
		Name           string `json:"name"`
		CompletionStep StepID `json:"completion_step,omitempty"`
		Steps          int    `json:"steps"`
		Blocking       bool   `json:"blocking_on_session_end"`
	}

	// FlowsListResponse lists the registered flow definitions
	FlowsListResponse struct {
		Flows []*FlowDigest `json:"flows"`
		Count int           `json:"count"`
	}

	// SessionsListResponse lists the sessions with event logs
	SessionsListResponse struct {
		Sessions []SessionID `json:"sessions"`
		Count    int         `json:"count"`
	}

	// SessionSummary describes one session's tracked flows at a glance
	SessionSummary struct {
		SessionID  SessionID `json:"session_id"`
		Flows      int       `json:"flows"`
		Incomplete int       `json:"incomplete"`
		Blocking   int       `json:"blocking"`
	}

	// InstancesResponse lists flow instances of a session
	InstancesResponse struct {
		Instances []*FlowInstance `json:"instances"`
		Count     int             `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
