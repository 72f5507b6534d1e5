package gateway

import (
	"context"
	"log/slog"

	"github.com/opsmesh/sre-agent/internal/models"
)

// MockGateway serves deterministic snapshots for development and tests:
// a volume-mount warning plus one pending pod with a restart. Selected by
// configuration so business logic never branches on a mock flag.
type MockGateway struct {
	logger *slog.Logger
}

// NewMockGateway constructs a MockGateway.
func NewMockGateway(logger *slog.Logger) *MockGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockGateway{logger: logger}
}

// GetPodStatus implements Gateway.
func (g *MockGateway) GetPodStatus(ctx context.Context, namespace, pod string) (models.PodStatusResult, error) {
	g.logger.Info("tool call", slog.String("tool", "get_pod_status"), slog.String("namespace", namespace), slog.String("pod", pod))
	if err := ctx.Err(); err != nil {
		return models.PodStatusResult{}, err
	}

	if pod != "" {
		return models.PodStatusResult{
			Namespace: namespace,
			TotalPods: 1,
			Pods: []models.PodInfo{{
				Name:      pod,
				Namespace: namespace,
				Phase:     "Running",
				Ready:     "1/1",
				Restarts:  0,
				Created:   "2025-09-11T10:00:00Z",
			}},
		}, nil
	}

	return models.PodStatusResult{
		Namespace: namespace,
		TotalPods: 2,
		Pods: []models.PodInfo{
			{
				Name:      "app-deployment-12345",
				Namespace: namespace,
				Phase:     "Running",
				Ready:     "1/1",
				Restarts:  0,
			},
			{
				Name:      "app-deployment-67890",
				Namespace: namespace,
				Phase:     "Pending",
				Ready:     "0/1",
				Restarts:  1,
			},
		},
	}, nil
}

// GetRecentEvents implements Gateway.
func (g *MockGateway) GetRecentEvents(ctx context.Context, namespace, resource string, limit int) (models.EventListResult, error) {
	g.logger.Info("tool call", slog.String("tool", "get_recent_events"), slog.String("namespace", namespace), slog.String("resource", resource), slog.Int("limit", limit))
	if err := ctx.Err(); err != nil {
		return models.EventListResult{}, err
	}

	name := resource
	if name == "" {
		name = "test-pod"
	}

	events := []models.EventRecord{
		{
			Type:    models.EventTypeWarning,
			Reason:  "FailedMount",
			Message: "Unable to mount volumes for pod",
			Object:  models.InvolvedObject{Kind: "Pod", Name: name},
			Count:   3,
		},
		{
			Type:    models.EventTypeNormal,
			Reason:  "Scheduled",
			Message: "Successfully assigned pod to node",
			Object:  models.InvolvedObject{Kind: "Pod", Name: name},
			Count:   1,
		},
	}
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}

	return models.EventListResult{
		Namespace:   namespace,
		TotalEvents: len(events),
		Events:      events,
	}, nil
}
