package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fixroute/backend/internal/classifier"
	"github.com/fixroute/backend/internal/models"
)

const (
	ReasonAssignedByRule = "ASSIGNED_BY_RULE"
)

// ErrMissingIssueID is the only hard error Route surfaces: it indicates a
// caller contract violation, not a domain condition.
var ErrMissingIssueID = errors.New("issue id is required")

// Router is the top-level routing engine. It is stateless per call: provider
// and rule snapshots are supplied by the caller and never written back.
type Router struct {
	Classifier classifier.Classifier
	Weights    ScoreWeights
	Logger     zerolog.Logger
}

type RouteResult struct {
	Decision          models.RoutingDecision
	Classification    models.Classification
	ClassifyLatencyMs int64
}

// Route runs classify -> rules -> selection and returns a decision with full
// provenance. Classifier failures degrade to the keyword path; the only error
// returned is a caller contract violation.
func (r *Router) Route(ctx context.Context, issue models.Issue, providers []models.Provider, rules []models.AutomationRule) (RouteResult, error) {
	if issue.ID == "" {
		return RouteResult{}, ErrMissingIssueID
	}

	c, latency := r.classify(ctx, issue)

	decision := models.RoutingDecision{
		IssueID:   issue.ID,
		Source:    models.SourceNone,
		DecidedAt: time.Now().UTC(),
	}
	trace := map[string]any{
		"classifier": map[string]any{
			"source":     c.Source,
			"category":   c.Category,
			"severity":   c.Severity,
			"confidence": c.Confidence,
			"latency_ms": latency,
		},
	}

	rule := EvaluateRules(c, rules, models.TriggerIssueCreated)
	escalate := false
	notify := false
	if rule != nil {
		escalate = rule.Actions.Escalate
		notify = rule.Actions.Notify
		ruleTrace := map[string]any{
			"rule_id":  rule.ID,
			"priority": rule.Priority,
			"notify":   rule.Actions.Notify,
		}
		if rule.Actions.AssignProviderID != "" {
			if p := findActiveProvider(providers, rule.Actions.AssignProviderID); p != nil {
				decision.Source = models.SourceRule
				decision.ProviderID = &p.ID
				decision.RuleID = rule.ID
				decision.ReasonCode = ReasonAssignedByRule
				decision.ReasonText = fmt.Sprintf("rule %s (priority %d) assigned provider %s", rule.ID, rule.Priority, p.ID)
			} else {
				// Rule names a provider that is missing or not ACTIVE;
				// fall through to scoring rather than holding the issue.
				ruleTrace["skipped_inactive_provider"] = rule.Actions.AssignProviderID
			}
		}
		trace["rule_eval"] = ruleTrace
	}

	if decision.Source != models.SourceRule {
		sel := SelectProvider(c, providers, r.Weights)
		decision.ReasonCode = sel.ReasonCode
		decision.ReasonText = sel.ReasonText
		if sel.Provider != nil {
			decision.Source = models.SourceScoring
			decision.ProviderID = &sel.Provider.ID
			score := sel.Score
			decision.Score = &score
		}
		trace["selection"] = selectionTrace(sel)
	}

	decision.Notifications = buildNotificationIntents(issue, c, decision, escalate, notify)
	if b, err := json.Marshal(trace); err == nil {
		decision.Trace = b
	}

	r.Logger.Debug().
		Str("issue_id", issue.ID).
		Str("source", string(decision.Source)).
		Str("reason_code", decision.ReasonCode).
		Msg("routing decision")

	return RouteResult{Decision: decision, Classification: c, ClassifyLatencyMs: latency}, nil
}

func (r *Router) classify(ctx context.Context, issue models.Issue) (models.Classification, int64) {
	req := classifier.Request{
		IssueID:      issue.ID,
		Title:        issue.Title,
		Description:  issue.Description,
		PropertyType: issue.PropertyType,
	}
	c, latency, err := r.Classifier.Classify(ctx, req)
	if err != nil {
		r.Logger.Warn().Err(err).Str("issue_id", issue.ID).Msg("classifier failed, using keyword fallback")
		c = classifier.ClassifyByKeywords(issue.Title, issue.Description)
		c.IssueID = issue.ID
		c.CreatedAt = time.Now().UTC()
		latency = 0
	}
	return c, latency
}

func findActiveProvider(providers []models.Provider, id string) *models.Provider {
	for i := range providers {
		if providers[i].ID == id && providers[i].Status == models.ProviderActive {
			return &providers[i]
		}
	}
	return nil
}

func selectionTrace(sel SelectionResult) map[string]any {
	top := sel.Ranked
	if len(top) > 3 {
		top = top[:3]
	}
	ranked := make([]map[string]any, 0, len(top))
	for _, sp := range top {
		ranked = append(ranked, map[string]any{
			"provider_id": sp.Provider.ID,
			"score":       sp.Score,
		})
	}
	return map[string]any{
		"reason_code": sel.ReasonCode,
		"degraded":    sel.Degraded,
		"top":         ranked,
	}
}

func buildNotificationIntents(issue models.Issue, c models.Classification, decision models.RoutingDecision, escalate, ruleNotify bool) []models.NotificationIntent {
	highPriority := c.Severity == models.SeverityUrgent || escalate

	payload := map[string]any{
		"issue_id": issue.ID,
		"category": string(c.Category),
		"severity": string(c.Severity),
		"source":   string(decision.Source),
	}

	companyBody := fmt.Sprintf("%s issue %q classified %s/%s", c.Category, issue.Title, c.Severity, decision.ReasonCode)
	intents := []models.NotificationIntent{{
		Audience: models.AudienceCompany,
		Title:    "New issue routed",
		Body:     companyBody,
		// A matched rule's notify action promotes the company alert even
		// when the issue itself is not urgent.
		HighPriority: highPriority || ruleNotify,
		Payload:      payload,
	}}

	if decision.ProviderID != nil {
		intents = append(intents, models.NotificationIntent{
			Audience:     models.AudienceProvider,
			ProviderID:   *decision.ProviderID,
			Title:        "New assignment",
			Body:         fmt.Sprintf("You have been assigned issue %q (%s, est. $%.0f)", issue.Title, c.Category, c.EstimatedCost),
			HighPriority: highPriority,
			Payload:      payload,
		})
	}

	return intents
}
