// Package executor defines the action-execution seam. Execution against a
// live cluster is deliberately unimplemented; the seam exists so approved
// actions have a typed destination and the API can report a honest outcome.
package executor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opsmesh/sre-agent/internal/models"
)

// ErrNotImplemented reports that action execution is not wired to a cluster.
var ErrNotImplemented = errors.New("action execution not implemented")

// ActionExecutor applies approved remediation actions.
type ActionExecutor interface {
	Execute(ctx context.Context, correlationID string, actions []models.Action, dryRun bool) (models.ExecutionResult, error)
}

// NotImplementedExecutor refuses every execution request while still
// returning a well-formed result. It logs each request for the audit trail.
type NotImplementedExecutor struct {
	logger *slog.Logger
}

func NewNotImplementedExecutor(logger *slog.Logger) *NotImplementedExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotImplementedExecutor{logger: logger}
}

func (e *NotImplementedExecutor) Execute(ctx context.Context, correlationID string, actions []models.Action, dryRun bool) (models.ExecutionResult, error) {
	e.logger.Info("execution request refused",
		slog.String("correlation_id", correlationID),
		slog.Int("action_count", len(actions)),
		slog.Bool("dry_run", dryRun),
	)
	result := models.ExecutionResult{
		CorrelationID:     correlationID,
		Results:           []map[string]any{},
		Success:           false,
		RollbackAvailable: false,
	}
	if dryRun {
		return result, nil
	}
	return result, ErrNotImplemented
}
