// Package patterns mines recurring incident signatures from decision history.
package patterns

import (
	"log/slog"
	"sort"
	"time"

	"github.com/opsmesh/sre-agent/internal/models"
)

// Miner aggregates simple frequency-based incident patterns from the
// decision audit trail.
type Miner struct {
	logger *slog.Logger
}

func NewMiner(logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{logger: logger}
}

// Mine groups decisions by namespace and issue type and ranks the groups by
// prevalence across the supplied history. Decisions without issue types
// contribute nothing.
func (m *Miner) Mine(records []models.DecisionRecord) []models.IncidentPattern {
	if len(records) == 0 {
		return nil
	}

	type key struct {
		namespace string
		issueType string
	}
	stats := make(map[key]*aggregate)
	for _, rec := range records {
		for _, issueType := range rec.IssueTypes {
			if issueType == "" {
				continue
			}
			k := key{namespace: rec.Namespace, issueType: issueType}
			agg, ok := stats[k]
			if !ok {
				agg = &aggregate{}
				stats[k] = agg
			}
			agg.count++
			if rec.CreatedAt.After(agg.lastSeen) {
				agg.lastSeen = rec.CreatedAt
			}
		}
	}

	patterns := make([]models.IncidentPattern, 0, len(stats))
	for k, agg := range stats {
		patterns = append(patterns, models.IncidentPattern{
			Namespace:  k.namespace,
			IssueType:  k.issueType,
			Count:      agg.count,
			Prevalence: float64(agg.count) / float64(len(records)),
			LastSeen:   agg.lastSeen,
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		if patterns[i].Namespace != patterns[j].Namespace {
			return patterns[i].Namespace < patterns[j].Namespace
		}
		return patterns[i].IssueType < patterns[j].IssueType
	})

	m.logger.Debug("mined incident patterns",
		slog.Int("records", len(records)),
		slog.Int("patterns", len(patterns)),
	)
	return patterns
}

type aggregate struct {
	count    int
	lastSeen time.Time
}
