package models

// IssueType classifies a finding derived from raw observations.
type IssueType string

const (
	IssueStorage        IssueType = "storage_issue"
	IssueGeneralFailure IssueType = "general_failure"
	IssuePodNotRunning  IssueType = "pod_not_running"
	IssuePodRestarts    IssueType = "pod_restarts"
)

// Severity captures impact levels.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ConfidenceLevel is the ordinal confidence used inside the analysis; it is
// mapped to a numeric value only at the decision boundary.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Issue is a structured, severity-tagged finding. Evidence holds the
// observation snapshot (EventRecord or PodInfo) that produced it.
type Issue struct {
	Type     IssueType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Evidence any       `json:"evidence"`
}

// AnalysisResult is the output of one symptom-correlation pass. Issue order
// is significant: position 0 is the primary concern.
type AnalysisResult struct {
	IssuesFound int             `json:"issues_found"`
	Issues      []Issue         `json:"issues"`
	Confidence  ConfidenceLevel `json:"confidence"`
	Summary     string          `json:"analysis_summary"`
	NextSteps   []string        `json:"recommended_next_steps"`
}
