package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsmesh/sre-agent/internal/team"
)

// RecommendationAgent turns the diagnostic findings into a remediation
// stance. A clean bill of health closes the conversation; anything else is
// escalated and the conversation drains to its turn bound.
type RecommendationAgent struct {
	name   string
	logger *slog.Logger
	diag   *DiagnosticAgent
}

func NewRecommendationAgent(logger *slog.Logger, diag *DiagnosticAgent) *RecommendationAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationAgent{name: "recommendation_agent", logger: logger, diag: diag}
}

// Name implements team.Participant.
func (a *RecommendationAgent) Name() string { return a.name }

// Tools implements team.Participant.
func (a *RecommendationAgent) Tools() []team.Tool { return nil }

// NextMessage implements team.Participant.
func (a *RecommendationAgent) NextMessage(ctx context.Context, transcript []team.Message) (team.Message, error) {
	analysis := a.diag.LastAnalysis()
	if analysis == nil {
		return team.Message{Content: "Waiting for diagnostic findings before recommending actions."}, nil
	}
	if analysis.IssuesFound == 0 {
		return team.Message{Content: "No significant issues detected in the analysis. Safe to approve automated remediation. TERMINATE"}, nil
	}
	if hasSpoken(transcript, a.name) {
		return team.Message{Content: "Awaiting operator review of the recommended actions."}, nil
	}

	content := fmt.Sprintf("%d issue(s) require attention; escalating for human review.", analysis.IssuesFound)
	if len(analysis.NextSteps) > 0 {
		content += " Suggested first step: " + analysis.NextSteps[0] + "."
	}
	a.logger.Info("escalating incident for human review",
		"issues_found", analysis.IssuesFound,
		"confidence", analysis.Confidence)
	return team.Message{Content: content}, nil
}
