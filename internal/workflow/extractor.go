package workflow

import (
	"fmt"
	"strings"

	"github.com/opsmesh/sre-agent/internal/models"
	"github.com/opsmesh/sre-agent/internal/team"
)

const reasoningPreviewLen = 200

// Extract reduces a conversation outcome to a DecisionResult. Only the final
// message decides the verdict; a run failure or an empty transcript maps to
// an error decision with zero confidence.
func Extract(transcript []team.Message, runErr error, terminationToken string) models.DecisionResult {
	if runErr != nil {
		return models.DecisionResult{
			Decision:   models.DecisionError,
			Confidence: 0.0,
			Reasoning:  fmt.Sprintf("Workflow failed: %v", runErr),
		}
	}
	if len(transcript) == 0 {
		return models.DecisionResult{
			Decision:   models.DecisionError,
			Confidence: 0.0,
			Reasoning:  "No messages in task result",
		}
	}

	last := transcript[len(transcript)-1].Content
	lower := strings.ToLower(last)

	decision := models.DecisionHumanReview
	confidence := 0.5
	switch {
	case strings.Contains(lower, strings.ToLower(terminationToken)) || strings.Contains(lower, "approve"):
		decision = models.DecisionApprove
		confidence = 0.8
	case strings.Contains(lower, "reject") || strings.Contains(lower, "error"):
		decision = models.DecisionReject
		confidence = 0.7
	}

	return models.DecisionResult{
		Decision:           decision,
		Confidence:         confidence,
		RecommendedActions: []models.Action{{Action: "review_team_analysis", Priority: "medium"}},
		Reasoning:          "Multi-agent team analysis: " + preview(last) + "...",
	}
}

func preview(s string) string {
	if len(s) <= reasoningPreviewLen {
		return s
	}
	return s[:reasoningPreviewLen]
}
