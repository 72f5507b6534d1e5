package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/opsmesh/sre-agent/internal/models"
)

func TestNotImplementedExecutorRefuses(t *testing.T) {
	exec := NewNotImplementedExecutor(nil)
	actions := []models.Action{{Action: "check_pod_logs", Priority: "high"}}

	result, err := exec.Execute(context.Background(), "req-1", actions, false)
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("err = %v, want ErrNotImplemented", err)
	}
	if result.Success || result.RollbackAvailable {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.CorrelationID != "req-1" {
		t.Fatalf("correlation id = %q", result.CorrelationID)
	}
	if result.Results == nil || len(result.Results) != 0 {
		t.Fatalf("results = %v, want empty slice", result.Results)
	}
}

func TestNotImplementedExecutorDryRun(t *testing.T) {
	exec := NewNotImplementedExecutor(nil)

	result, err := exec.Execute(context.Background(), "req-2", nil, true)
	if err != nil {
		t.Fatalf("dry run should not fail: %v", err)
	}
	if result.Success {
		t.Fatal("dry run must not report success")
	}
}
