// Package gateway provides cluster introspection for the incident workflow.
// Lookups return failures as data (an Error field on the result) so the
// caller can treat a broken tool as evidence rather than aborting the run;
// only context cancellation and deadline expiry surface as Go errors.
package gateway

import (
	"context"

	"github.com/opsmesh/sre-agent/internal/models"
)

// Gateway exposes the read-only cluster operations used by participants.
// Implementations must be safe for concurrent independent calls.
type Gateway interface {
	// GetPodStatus returns the state of one pod, or of all pods in the
	// namespace when pod is empty.
	GetPodStatus(ctx context.Context, namespace, pod string) (models.PodStatusResult, error)

	// GetRecentEvents returns up to limit recent events in the namespace,
	// filtered by involved-object name when resource is non-empty.
	GetRecentEvents(ctx context.Context, namespace, resource string, limit int) (models.EventListResult, error)
}
