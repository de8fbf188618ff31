package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/fixroute/backend/internal/classifier"
	"github.com/fixroute/backend/internal/db"
	"github.com/fixroute/backend/internal/models"
	"github.com/fixroute/backend/internal/notify"
)

const (
	RunStatusRunning = "RUNNING"
	RunStatusDone    = "DONE"
	RunStatusError   = "ERROR"
)

// ProcessingService routes every pending issue in one pass. The engine itself
// stays stateless; this layer supplies provider/rule snapshots, persists
// decisions atomically, and hands notification intents to the dispatcher.
type ProcessingService struct {
	Store      *db.Store
	Router     *Router
	Dispatcher notify.Dispatcher
	Logger     zerolog.Logger
}

type RunSummary struct {
	Events  []map[string]any `json:"events"`
	Counts  map[string]any   `json:"counts"`
	Samples []map[string]any `json:"samples,omitempty"`
}

func (s *ProcessingService) ProcessIssues(ctx context.Context, debug bool) (RunSummary, error) {
	issues, err := s.Store.GetIssuesForRouting(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	providers, err := s.Store.ListProviders(ctx, "", "")
	if err != nil {
		return RunSummary{}, err
	}

	rules, err := s.Store.ListRules(ctx, true)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()
	summary.Events = append(summary.Events, map[string]any{
		"type":    "routing_started",
		"message": "Issues ready for routing",
		"count":   len(issues),
		"time":    time.Now().UTC(),
	})

	var (
		classifiedCount  int
		latencyTotal     int64
		fallbackCount    int
		ruleCount        int
		scoringCount     int
		unroutedCount    int
		writeErrors      int
		topUnroutedCodes = map[string]int{}
	)

	for _, issue := range issues {
		result, err := s.Router.Route(ctx, issue, providers, rules)
		if err != nil {
			// Only caller contract violations reach here; skip the row.
			s.Logger.Error().Err(err).Str("issue_id", issue.ID).Msg("routing skipped")
			continue
		}

		classifiedCount++
		latencyTotal += result.ClassifyLatencyMs
		if result.Classification.Source == classifier.SourceKeywords {
			fallbackCount++
		}

		decision := result.Decision
		decision.ID = uuid.NewString()
		classification := result.Classification
		classification.ID = uuid.NewString()

		if err := s.writeDecision(ctx, classification, decision); err != nil {
			writeErrors++
			s.Logger.Error().Err(err).Str("issue_id", issue.ID).Msg("decision write failed")
			continue
		}

		if err := s.Dispatcher.Dispatch(ctx, decision.Notifications); err != nil {
			s.Logger.Warn().Err(err).Str("issue_id", issue.ID).Msg("notification dispatch failed")
		}

		switch decision.Source {
		case models.SourceRule:
			ruleCount++
		case models.SourceScoring:
			scoringCount++
		default:
			unroutedCount++
			topUnroutedCodes[decision.ReasonCode]++
			if debug && len(summary.Samples) < 5 {
				summary.Samples = append(summary.Samples, map[string]any{
					"issue_id":    issue.ID,
					"reason_code": decision.ReasonCode,
					"reason_text": decision.ReasonText,
				})
			}
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":           "classification",
		"message":        "Classification complete",
		"count":          classifiedCount,
		"avg_latency_ms": avgLatency(latencyTotal, classifiedCount),
		"fallbacks":      fallbackCount,
		"time":           time.Now().UTC(),
	})

	summary.Events = append(summary.Events, map[string]any{
		"type":         "routing",
		"by_rule":      ruleCount,
		"by_scoring":   scoringCount,
		"unrouted":     unroutedCount,
		"write_errors": writeErrors,
		"time":         time.Now().UTC(),
	})

	summary.Events = append(summary.Events, map[string]any{
		"type":       "run_saved",
		"message":    "Routing run saved",
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})

	summary.Counts["issues_processed"] = len(issues)
	summary.Counts["routed_by_rule"] = ruleCount
	summary.Counts["routed_by_scoring"] = scoringCount
	summary.Counts["unrouted"] = unroutedCount
	summary.Counts["classifier_fallbacks"] = fallbackCount
	summary.Counts["write_errors"] = writeErrors
	summary.Counts["top_unrouted_reasons"] = topUnroutedCodes
	return summary, nil
}

func (s *ProcessingService) writeDecision(ctx context.Context, c models.Classification, d models.RoutingDecision) error {
	return s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.UpsertClassification(ctx, tx, c); err != nil {
			return err
		}
		return s.Store.UpsertRoutingDecision(ctx, tx, d)
	})
}

func avgLatency(total int64, count int) int64 {
	if count == 0 {
		return 0
	}
	return total / int64(count)
}
