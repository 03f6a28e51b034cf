package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Submission describes a stored contact submission in a transport-friendly format.
type Submission struct {
	ID         int64  `json:"id"`
	RequestID  string `json:"requestId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Message    string `json:"message"`
	RemoteAddr string `json:"remoteAddr,omitempty"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"lastError,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
	SentAt     string `json:"sentAt,omitempty"`
}

// CheckStatus captures the outcome of a readiness check.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running         bool           `json:"running"`
	PID             int            `json:"pid"`
	DatabasePath    string         `json:"databasePath"`
	LockFilePath    string         `json:"lockFilePath"`
	RelayReady      bool           `json:"relayReady"`
	StartedAt       string         `json:"startedAt,omitempty"`
	SubmissionStats map[string]int `json:"submissionStats"`
	Checks          []CheckStatus  `json:"checks"`
}

// SubmissionListResponse wraps a collection of submissions.
type SubmissionListResponse struct {
	Items []Submission `json:"items"`
}

// SubmissionResponse wraps a single submission.
type SubmissionResponse struct {
	Item Submission `json:"item"`
}

// ErrorResponse is the body of every non-2xx API response outside /api/contact.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// NotificationResponse reports the outcome of a test notification.
type NotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
