package models

import "time"

// Decision is the terminal verdict of one workflow run.
type Decision string

const (
	DecisionApprove     Decision = "approve"
	DecisionReject      Decision = "reject"
	DecisionHumanReview Decision = "human_review"
	DecisionError       Decision = "error"
)

// Action is a recommended remediation step. Actions are recommended, never
// applied by this service.
type Action struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

// DecisionResult is the caller-visible outcome of one workflow run.
// TerminationReason and IssueTypes are audit extras carried alongside the
// core fields.
type DecisionResult struct {
	Decision           Decision
	Confidence         float64
	RecommendedActions []Action
	Reasoning          string
	CorrelationID      string
	TerminationReason  string
	IssueTypes         []string
	CreatedAt          time.Time
}

// DecisionRecord is the persisted audit row for a decision.
type DecisionRecord struct {
	CorrelationID     string
	Namespace         string
	ResourceName      string
	ResourceKind      string
	Decision          Decision
	Confidence        float64
	Reasoning         string
	TerminationReason string
	IssueTypes        []string
	CreatedAt         time.Time
}

// ListDecisionsRequest filters the decision audit history.
type ListDecisionsRequest struct {
	Namespace string
	Since     time.Time
	Limit     int
}

// Feedback captures an operator verdict on a past decision.
type Feedback struct {
	CorrelationID string
	Correct       bool
	Notes         string
	SubmittedAt   time.Time
}

// IncidentPattern is a recurring issue signature mined from decision history.
type IncidentPattern struct {
	Namespace  string
	IssueType  string
	Count      int
	Prevalence float64
	LastSeen   time.Time
}

// ExecutionResult reports the outcome of an action-execution request.
type ExecutionResult struct {
	CorrelationID     string
	Results           []map[string]any
	Success           bool
	RollbackAvailable bool
}
