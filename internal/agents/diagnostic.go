// Package agents contains the conversation participants of the incident
// workflow. All participants implement team.Participant; rule-based and
// model-backed variants are interchangeable.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opsmesh/sre-agent/internal/correlator"
	"github.com/opsmesh/sre-agent/internal/gateway"
	"github.com/opsmesh/sre-agent/internal/models"
	"github.com/opsmesh/sre-agent/internal/team"
)

const defaultEventLimit = 10

// DiagnosticAgent inspects the cluster through the tool gateway, correlates
// symptoms and reports its findings. One agent serves one workflow run.
type DiagnosticAgent struct {
	name       string
	logger     *slog.Logger
	gw         gateway.Gateway
	correlator *correlator.Correlator
	namespace  string
	resource   string
	eventLimit int
	analysis   *models.AnalysisResult
}

// NewDiagnosticAgent constructs a per-run diagnostic participant for the
// incident's namespace and resource.
func NewDiagnosticAgent(logger *slog.Logger, gw gateway.Gateway, namespace, resource string) *DiagnosticAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagnosticAgent{
		name:       "analysis_agent",
		logger:     logger,
		gw:         gw,
		correlator: correlator.New(logger),
		namespace:  namespace,
		resource:   resource,
		eventLimit: defaultEventLimit,
	}
}

// Name implements team.Participant.
func (a *DiagnosticAgent) Name() string { return a.name }

// LastAnalysis returns the analysis produced on this run, or nil before the
// agent's first substantive turn.
func (a *DiagnosticAgent) LastAnalysis() *models.AnalysisResult { return a.analysis }

// NextMessage implements team.Participant. The first turn gathers
// observations and correlates them; later turns hold position so the
// conversation can drain to its bound.
func (a *DiagnosticAgent) NextMessage(ctx context.Context, transcript []team.Message) (team.Message, error) {
	if hasSpoken(transcript, a.name) {
		return team.Message{Content: "Diagnosis already provided; monitoring for additional signals."}, nil
	}

	events, err := a.gw.GetRecentEvents(ctx, a.namespace, a.resource, a.eventLimit)
	if err != nil {
		return team.Message{}, fmt.Errorf("get_recent_events: %w", err)
	}
	pods, err := a.gw.GetPodStatus(ctx, a.namespace, "")
	if err != nil {
		return team.Message{}, fmt.Errorf("get_pod_status: %w", err)
	}

	contextData := map[string]any{"namespace": a.namespace, "resource": a.resource}
	if events.Error != "" {
		contextData["events_tool_failure"] = events.Error
	}
	if pods.Error != "" {
		contextData["pods_tool_failure"] = pods.Error
	}

	result := a.correlator.Correlate(events.Events, pods.Pods, contextData)
	a.analysis = &result

	return team.Message{Content: a.renderAnalysis(result, events.Error, pods.Error)}, nil
}

func (a *DiagnosticAgent) renderAnalysis(result models.AnalysisResult, eventsFailure, podsFailure string) string {
	content := fmt.Sprintf("Diagnostic analysis for %s/%s: %s", a.namespace, a.resource, result.Summary)
	if eventsFailure != "" {
		content += "\nEvent lookup degraded: " + eventsFailure
	}
	if podsFailure != "" {
		content += "\nPod lookup degraded: " + podsFailure
	}
	if len(result.NextSteps) > 0 {
		content += "\nRecommended next steps:"
		for i, step := range result.NextSteps {
			content += fmt.Sprintf("\n%d. %s", i+1, step)
		}
	}
	return content
}

// Tools implements team.Participant. Each capability is a named, typed
// operation the driver may invoke directly.
func (a *DiagnosticAgent) Tools() []team.Tool {
	return []team.Tool{
		{
			Name:        "get_pod_status",
			Description: "Get pod status information for a namespace, optionally a single pod",
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				namespace := stringArg(args, "namespace", a.namespace)
				pod := stringArg(args, "pod_name", "")
				return a.gw.GetPodStatus(ctx, namespace, pod)
			},
		},
		{
			Name:        "get_recent_events",
			Description: "Get recent Kubernetes events, optionally filtered by resource name",
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				namespace := stringArg(args, "namespace", a.namespace)
				resource := stringArg(args, "resource_name", "")
				limit := intArg(args, "limit", a.eventLimit)
				return a.gw.GetRecentEvents(ctx, namespace, resource, limit)
			},
		},
		{
			Name:        "analyze_symptoms",
			Description: "Correlate events and pod states into a ranked issue list",
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				var events []models.EventRecord
				if err := decodeArg(args, "events", &events); err != nil {
					return nil, err
				}
				var pods models.PodStatusResult
				if err := decodeArg(args, "pod_status", &pods); err != nil {
					return nil, err
				}
				contextData, _ := args["context"].(map[string]any)
				return a.correlator.Correlate(events, pods.Pods, contextData), nil
			},
		},
	}
}

func hasSpoken(transcript []team.Message, speaker string) bool {
	for _, msg := range transcript {
		if msg.Speaker == speaker {
			return true
		}
	}
	return false
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// decodeArg converts a loosely-typed tool argument into its model type.
func decodeArg(args map[string]any, key string, out any) error {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("argument %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("argument %s: %w", key, err)
	}
	return nil
}
