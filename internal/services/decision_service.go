// Package services hosts the decision facade the API serves. It owns
// cross-cutting concerns around the workflow: metrics, latency tracking and
// audit persistence.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/opsmesh/sre-agent/internal/metrics"
	"github.com/opsmesh/sre-agent/internal/models"
	"github.com/opsmesh/sre-agent/internal/patterns"
	"github.com/opsmesh/sre-agent/internal/utils"
	"github.com/opsmesh/sre-agent/internal/workflow"
)

var (
	// ErrHistoryDisabled reports that no audit store is configured.
	ErrHistoryDisabled = errors.New("decision history not configured")
	// ErrUnknownCorrelation reports feedback against a decision that was
	// never recorded.
	ErrUnknownCorrelation = errors.New("unknown correlation id")
)

// HistoryStore defines the persistence operations the service requires.
type HistoryStore interface {
	StoreDecision(ctx context.Context, rec models.DecisionRecord) error
	ListDecisions(ctx context.Context, req models.ListDecisionsRequest) ([]models.DecisionRecord, error)
	HasDecision(ctx context.Context, correlationID string) (bool, error)
	StoreFeedback(ctx context.Context, fb models.Feedback) error
}

// IncidentProcessor runs one incident to a decision.
type IncidentProcessor interface {
	ProcessIncident(ctx context.Context, incident models.Incident, correlationID string) models.DecisionResult
}

// DecisionService implements the HTTP-facing decision operations.
type DecisionService struct {
	logger    *slog.Logger
	processor IncidentProcessor
	history   HistoryStore
	miner     *patterns.Miner
	latencies *utils.LatencyTracker
}

var _ IncidentProcessor = (*workflow.Orchestrator)(nil)

// NewDecisionService constructs the facade. history may be nil when audit
// persistence is disabled.
func NewDecisionService(logger *slog.Logger, processor IncidentProcessor, history HistoryStore) *DecisionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecisionService{
		logger:    logger,
		processor: processor,
		history:   history,
		miner:     patterns.NewMiner(logger),
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Decide runs the incident workflow and records the outcome. The returned
// result is always well formed, matching the processor's contract.
func (s *DecisionService) Decide(ctx context.Context, incident models.Incident, correlationID string) models.DecisionResult {
	start := time.Now()
	result := s.processor.ProcessIncident(ctx, incident, correlationID)
	duration := time.Since(start)

	s.latencies.Observe(duration)
	metrics.ObserveDecision(duration, string(result.Decision))
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("decision latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	if s.history != nil {
		rec := models.DecisionRecord{
			CorrelationID:     result.CorrelationID,
			Namespace:         incident.Namespace,
			ResourceName:      incident.ResourceName,
			ResourceKind:      incident.ResourceKind,
			Decision:          result.Decision,
			Confidence:        result.Confidence,
			Reasoning:         result.Reasoning,
			TerminationReason: result.TerminationReason,
			IssueTypes:        result.IssueTypes,
			CreatedAt:         result.CreatedAt,
		}
		if err := s.history.StoreDecision(ctx, rec); err != nil {
			s.logger.Warn("decision audit write failed",
				slog.String("correlation_id", result.CorrelationID),
				slog.Any("error", err))
		}
	}
	return result
}

// ListDecisions returns the decision history, newest first.
func (s *DecisionService) ListDecisions(ctx context.Context, req models.ListDecisionsRequest) ([]models.DecisionRecord, error) {
	if s.history == nil {
		return nil, utils.NewAppError("ListDecisions", "history unavailable", ErrHistoryDisabled)
	}
	records, err := s.history.ListDecisions(ctx, req)
	if err != nil {
		return nil, utils.NewAppError("ListDecisions", "failed to list decisions", err)
	}
	return records, nil
}

// SubmitFeedback records an operator verdict against a known decision.
func (s *DecisionService) SubmitFeedback(ctx context.Context, fb models.Feedback) error {
	if s.history == nil {
		return utils.NewAppError("SubmitFeedback", "history unavailable", ErrHistoryDisabled)
	}
	if fb.CorrelationID == "" {
		return utils.NewAppError("SubmitFeedback", "correlation_id is required", nil)
	}
	known, err := s.history.HasDecision(ctx, fb.CorrelationID)
	if err != nil {
		return utils.NewAppError("SubmitFeedback", "failed to look up decision", err)
	}
	if !known {
		return utils.NewAppError("SubmitFeedback", fb.CorrelationID, ErrUnknownCorrelation)
	}
	if fb.SubmittedAt.IsZero() {
		fb.SubmittedAt = time.Now().UTC()
	}
	if err := s.history.StoreFeedback(ctx, fb); err != nil {
		return utils.NewAppError("SubmitFeedback", "failed to store feedback", err)
	}
	return nil
}

// Patterns mines recurring incident signatures from the stored history.
func (s *DecisionService) Patterns(ctx context.Context, namespace string) ([]models.IncidentPattern, error) {
	if s.history == nil {
		return nil, utils.NewAppError("Patterns", "history unavailable", ErrHistoryDisabled)
	}
	records, err := s.history.ListDecisions(ctx, models.ListDecisionsRequest{Namespace: namespace, Limit: 500})
	if err != nil {
		return nil, utils.NewAppError("Patterns", "failed to load decision history", err)
	}
	return s.miner.Mine(records), nil
}

// LatencyP95 exposes the rolling p95 decision latency.
func (s *DecisionService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}
