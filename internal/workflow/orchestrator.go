// Package workflow runs the multi-agent incident workflow end to end and
// reduces each run to a single decision.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opsmesh/sre-agent/internal/agents"
	"github.com/opsmesh/sre-agent/internal/gateway"
	"github.com/opsmesh/sre-agent/internal/models"
	"github.com/opsmesh/sre-agent/internal/team"
)

// Orchestrator builds a fresh team per incident, drives it to a terminal
// state and extracts the decision. It is safe for concurrent use; runs do
// not share state.
type Orchestrator struct {
	logger  *slog.Logger
	gw      gateway.Gateway
	teamCfg team.Config
	backend agents.ModelBackend
}

func NewOrchestrator(logger *slog.Logger, gw gateway.Gateway, teamCfg team.Config) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{logger: logger, gw: gw, teamCfg: teamCfg}
}

// WithModelBackend routes participant turns through a language model instead
// of the rule-based agents.
func (o *Orchestrator) WithModelBackend(backend agents.ModelBackend) *Orchestrator {
	o.backend = backend
	return o
}

// ProcessIncident runs one incident through the team and always returns a
// well-formed DecisionResult; run failures surface as an error decision, not
// as a Go error.
func (o *Orchestrator) ProcessIncident(ctx context.Context, incident models.Incident, correlationID string) models.DecisionResult {
	if correlationID == "" {
		correlationID = "req-" + uuid.NewString()
	}
	logger := o.logger.With(
		slog.String("correlation_id", correlationID),
		slog.String("namespace", incident.Namespace),
		slog.String("resource", incident.ResourceName),
	)
	logger.Info("starting incident workflow")

	diag := agents.NewDiagnosticAgent(o.logger, o.gw, incident.Namespace, incident.ResourceName)
	participants := o.buildParticipants(diag)
	conversation := team.New(o.logger, o.teamCfg, participants...)

	result, runErr := conversation.Run(ctx, initialMessage(incident))

	decision := Extract(result.Transcript, runErr, o.terminationToken())
	decision.CorrelationID = correlationID
	decision.TerminationReason = string(result.Reason)
	decision.CreatedAt = time.Now().UTC()

	if analysis := diag.LastAnalysis(); analysis != nil && decision.Decision != models.DecisionError {
		decision.IssueTypes = issueTypes(analysis)
		if analysis.IssuesFound > 0 {
			decision.RecommendedActions = []models.Action{
				{Action: "check_pod_logs", Priority: string(analysis.Issues[0].Severity)},
			}
		}
	}

	logger.Info("incident workflow finished",
		slog.String("decision", string(decision.Decision)),
		slog.Float64("confidence", decision.Confidence),
		slog.String("termination_reason", decision.TerminationReason),
		slog.Int("messages", len(result.Transcript)),
	)
	return decision
}

func (o *Orchestrator) buildParticipants(diag *agents.DiagnosticAgent) []team.Participant {
	if o.backend != nil {
		return []team.Participant{
			agents.NewModelAgent(o.logger, "analysis_agent", o.backend, diag.Tools()...),
			agents.NewModelAgent(o.logger, "recommendation_agent", o.backend),
		}
	}
	return []team.Participant{diag, agents.NewRecommendationAgent(o.logger, diag)}
}

func (o *Orchestrator) terminationToken() string {
	if o.teamCfg.TerminationToken != "" {
		return o.teamCfg.TerminationToken
	}
	return team.DefaultTerminationToken
}

func initialMessage(incident models.Incident) team.Message {
	content := fmt.Sprintf(
		"Kubernetes Incident Detected:\n\nNamespace: %s\nResource: %s\nEvent Data: %v\n\nPlease analyze this incident and recommend appropriate actions.",
		incident.Namespace, incident.ResourceName, incident.EventData,
	)
	return team.Message{Speaker: "incident", Content: content}
}

func issueTypes(analysis *models.AnalysisResult) []string {
	seen := map[string]bool{}
	var types []string
	for _, issue := range analysis.Issues {
		key := string(issue.Type)
		if !seen[key] {
			seen[key] = true
			types = append(types, key)
		}
	}
	return types
}
