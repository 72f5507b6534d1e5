package correlator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsmesh/sre-agent/internal/models"
)

// Correlator turns raw event/pod snapshots into a ranked issue list with an
// ordinal confidence. It is pure: identical inputs produce identical results,
// and malformed or missing input sections degrade to "no issues of that
// category" rather than erroring.
type Correlator struct {
	logger *slog.Logger
}

// New constructs a Correlator.
func New(logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{logger: logger}
}

// Correlate inspects warning events and pod states and returns the analysis.
// Events are processed before pod statuses; issue order is insertion order and
// position 0 is the primary concern.
func (c *Correlator) Correlate(events []models.EventRecord, pods []models.PodInfo, contextData map[string]any) models.AnalysisResult {
	c.logger.Debug("analyzing symptoms",
		slog.Int("event_count", len(events)),
		slog.Int("pod_count", len(pods)),
		slog.Any("context", contextData),
	)

	issues := make([]models.Issue, 0)
	confidence := models.ConfidenceLow

	for _, event := range events {
		if event.Type != models.EventTypeWarning {
			continue
		}
		switch {
		case strings.Contains(event.Reason, "FailedMount"):
			issues = append(issues, models.Issue{
				Type:     models.IssueStorage,
				Severity: models.SeverityHigh,
				Message:  "Volume mount failure detected",
				Evidence: event,
			})
			confidence = models.ConfidenceHigh
		case strings.Contains(event.Reason, "Failed") || strings.Contains(event.Reason, "Error"):
			issues = append(issues, models.Issue{
				Type:     models.IssueGeneralFailure,
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("Failure detected: %s", event.Reason),
				Evidence: event,
			})
			// A generic failure never demotes confidence already raised to
			// high by a storage finding.
			if confidence != models.ConfidenceHigh {
				confidence = models.ConfidenceMedium
			}
		}
	}

	for _, pod := range pods {
		if pod.Phase != "Running" {
			issues = append(issues, models.Issue{
				Type:     models.IssuePodNotRunning,
				Severity: models.SeverityHigh,
				Message:  fmt.Sprintf("Pod %s is in %s state", pod.Name, pod.Phase),
				Evidence: pod,
			})
			confidence = models.ConfidenceHigh
		}
		if pod.Restarts > 0 {
			issues = append(issues, models.Issue{
				Type:     models.IssuePodRestarts,
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("Pod %s has %d restarts", pod.Name, pod.Restarts),
				Evidence: pod,
			})
		}
	}

	return models.AnalysisResult{
		IssuesFound: len(issues),
		Issues:      issues,
		Confidence:  confidence,
		Summary:     summarize(issues),
		NextSteps:   nextSteps(issues),
	}
}

func summarize(issues []models.Issue) string {
	if len(issues) == 0 {
		return "No significant issues detected in the analysis."
	}

	high := 0
	medium := 0
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityHigh:
			high++
		case models.SeverityMedium:
			medium++
		}
	}

	summary := fmt.Sprintf("Found %d issue(s): ", len(issues))
	if high > 0 {
		summary += fmt.Sprintf("%d high-severity, ", high)
	}
	if medium > 0 {
		summary += fmt.Sprintf("%d medium-severity", medium)
	}
	summary = strings.TrimRight(summary, ", ")

	return summary + fmt.Sprintf(". Primary concern: %s", issues[0].Message)
}

func nextSteps(issues []models.Issue) []string {
	if len(issues) == 0 {
		return []string{"Continue monitoring", "No immediate action required"}
	}

	types := make(map[models.IssueType]struct{}, len(issues))
	for _, issue := range issues {
		types[issue.Type] = struct{}{}
	}

	steps := make([]string, 0, 9)
	if _, ok := types[models.IssueStorage]; ok {
		steps = appendUnique(steps,
			"Check PVC status and storage class",
			"Verify storage node availability",
			"Review storage provisioner logs",
		)
	}
	if _, ok := types[models.IssuePodNotRunning]; ok {
		steps = appendUnique(steps,
			"Check pod events and logs",
			"Verify resource limits and requests",
			"Check node capacity and scheduling",
		)
	}
	if _, ok := types[models.IssuePodRestarts]; ok {
		steps = appendUnique(steps,
			"Examine container logs for crash reasons",
			"Check resource limits",
			"Review health check configurations",
		)
	}
	if len(steps) == 0 {
		steps = append(steps,
			"Review recent changes and deployments",
			"Check application logs",
			"Monitor resource usage trends",
		)
	}

	if len(steps) > 5 {
		steps = steps[:5]
	}
	return steps
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, step := range existing {
		seen[step] = struct{}{}
	}
	for _, step := range additions {
		if _, ok := seen[step]; ok {
			continue
		}
		existing = append(existing, step)
		seen[step] = struct{}{}
	}
	return existing
}
