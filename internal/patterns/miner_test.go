package patterns

import (
	"testing"
	"time"

	"github.com/opsmesh/sre-agent/internal/models"
)

func TestMinerAggregatesByNamespaceAndIssueType(t *testing.T) {
	miner := NewMiner(nil)
	now := time.Now().UTC()

	records := []models.DecisionRecord{
		{CorrelationID: "req-1", Namespace: "prod", IssueTypes: []string{"storage_issue", "pod_restarts"}, CreatedAt: now.Add(-2 * time.Hour)},
		{CorrelationID: "req-2", Namespace: "prod", IssueTypes: []string{"storage_issue"}, CreatedAt: now},
		{CorrelationID: "req-3", Namespace: "staging", IssueTypes: []string{"pod_not_running"}, CreatedAt: now.Add(-time.Hour)},
		{CorrelationID: "req-4", Namespace: "prod", IssueTypes: nil, CreatedAt: now},
	}

	patterns := miner.Mine(records)
	if len(patterns) != 3 {
		t.Fatalf("got %d patterns, want 3: %+v", len(patterns), patterns)
	}

	top := patterns[0]
	if top.Namespace != "prod" || top.IssueType != "storage_issue" {
		t.Fatalf("top pattern = %s/%s, want prod/storage_issue", top.Namespace, top.IssueType)
	}
	if top.Count != 2 {
		t.Fatalf("top count = %d, want 2", top.Count)
	}
	if top.Prevalence != 0.5 {
		t.Fatalf("top prevalence = %v, want 0.5", top.Prevalence)
	}
	if !top.LastSeen.Equal(now) {
		t.Fatalf("top lastSeen = %v, want %v", top.LastSeen, now)
	}
}

func TestMinerEmptyHistory(t *testing.T) {
	miner := NewMiner(nil)
	if got := miner.Mine(nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestMinerDeterministicOrder(t *testing.T) {
	miner := NewMiner(nil)
	now := time.Now()
	records := []models.DecisionRecord{
		{CorrelationID: "req-1", Namespace: "prod", IssueTypes: []string{"pod_restarts"}, CreatedAt: now},
		{CorrelationID: "req-2", Namespace: "prod", IssueTypes: []string{"general_failure"}, CreatedAt: now},
	}

	first := miner.Mine(records)
	second := miner.Mine(records)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order not deterministic: %+v vs %+v", first[i], second[i])
		}
	}
	if first[0].IssueType != "general_failure" {
		t.Fatalf("equal counts must order by issue type, got %s first", first[0].IssueType)
	}
}
