package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/opsmesh/sre-agent/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id, namespace string, createdAt time.Time) models.DecisionRecord {
	return models.DecisionRecord{
		CorrelationID:     id,
		Namespace:         namespace,
		ResourceName:      "api-7f9",
		ResourceKind:      "Pod",
		Decision:          models.DecisionHumanReview,
		Confidence:        0.5,
		Reasoning:         "Multi-agent team analysis: escalated...",
		TerminationReason: "max_turns",
		IssueTypes:        []string{"storage_issue", "pod_restarts"},
		CreatedAt:         createdAt,
	}
}

func TestStoreAndListDecisions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := s.StoreDecision(ctx, record("req-1", "prod", now.Add(-2*time.Hour))); err != nil {
		t.Fatalf("StoreDecision: %v", err)
	}
	if err := s.StoreDecision(ctx, record("req-2", "prod", now.Add(-1*time.Hour))); err != nil {
		t.Fatalf("StoreDecision: %v", err)
	}
	if err := s.StoreDecision(ctx, record("req-3", "staging", now)); err != nil {
		t.Fatalf("StoreDecision: %v", err)
	}

	all, err := s.ListDecisions(ctx, models.ListDecisionsRequest{})
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	if all[0].CorrelationID != "req-3" || all[2].CorrelationID != "req-1" {
		t.Fatalf("records not newest first: %s, %s", all[0].CorrelationID, all[2].CorrelationID)
	}
	if got := all[0].IssueTypes; len(got) != 2 || got[0] != "storage_issue" || got[1] != "pod_restarts" {
		t.Fatalf("issue types round trip failed: %v", got)
	}
	if all[0].Decision != models.DecisionHumanReview || all[0].Confidence != 0.5 {
		t.Fatalf("decision fields lost: %+v", all[0])
	}

	prod, err := s.ListDecisions(ctx, models.ListDecisionsRequest{Namespace: "prod"})
	if err != nil {
		t.Fatalf("ListDecisions namespace filter: %v", err)
	}
	if len(prod) != 2 {
		t.Fatalf("got %d prod records, want 2", len(prod))
	}

	recent, err := s.ListDecisions(ctx, models.ListDecisionsRequest{Since: now.Add(-90 * time.Minute)})
	if err != nil {
		t.Fatalf("ListDecisions since filter: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d recent records, want 2", len(recent))
	}

	limited, err := s.ListDecisions(ctx, models.ListDecisionsRequest{Limit: 1})
	if err != nil {
		t.Fatalf("ListDecisions limit: %v", err)
	}
	if len(limited) != 1 || limited[0].CorrelationID != "req-3" {
		t.Fatalf("limit not applied: %+v", limited)
	}
}

func TestStoreDecisionUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := record("req-1", "prod", now)
	if err := s.StoreDecision(ctx, rec); err != nil {
		t.Fatalf("StoreDecision: %v", err)
	}
	rec.Decision = models.DecisionApprove
	rec.Confidence = 0.8
	if err := s.StoreDecision(ctx, rec); err != nil {
		t.Fatalf("StoreDecision upsert: %v", err)
	}

	got, err := s.ListDecisions(ctx, models.ListDecisionsRequest{})
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Decision != models.DecisionApprove || got[0].Confidence != 0.8 {
		t.Fatalf("upsert did not overwrite: %+v", got[0])
	}
}

func TestHasDecision(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.HasDecision(ctx, "req-missing")
	if err != nil {
		t.Fatalf("HasDecision: %v", err)
	}
	if ok {
		t.Fatal("missing decision reported present")
	}

	if err := s.StoreDecision(ctx, record("req-1", "prod", time.Now())); err != nil {
		t.Fatalf("StoreDecision: %v", err)
	}
	ok, err = s.HasDecision(ctx, "req-1")
	if err != nil {
		t.Fatalf("HasDecision: %v", err)
	}
	if !ok {
		t.Fatal("stored decision not found")
	}
}

func TestStoreFeedback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.StoreDecision(ctx, record("req-1", "prod", time.Now())); err != nil {
		t.Fatalf("StoreDecision: %v", err)
	}
	fb := models.Feedback{CorrelationID: "req-1", Correct: false, Notes: "wrong severity"}
	if err := s.StoreFeedback(ctx, fb); err != nil {
		t.Fatalf("StoreFeedback: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback WHERE correlation_id = ?`, "req-1").Scan(&count); err != nil {
		t.Fatalf("count feedback: %v", err)
	}
	if count != 1 {
		t.Fatalf("feedback rows = %d, want 1", count)
	}
}
