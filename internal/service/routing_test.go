package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fixroute/backend/internal/classifier"
	"github.com/fixroute/backend/internal/models"
)

type fixedClassifier struct {
	result models.Classification
}

func (f fixedClassifier) Classify(ctx context.Context, req classifier.Request) (models.Classification, int64, error) {
	c := f.result
	c.IssueID = req.IssueID
	return c, 1, nil
}

type brokenClassifier struct{}

func (brokenClassifier) Classify(ctx context.Context, req classifier.Request) (models.Classification, int64, error) {
	return models.Classification{}, 0, errors.New("timeout")
}

func newRouter(c classifier.Classifier) *Router {
	return &Router{Classifier: c, Weights: DefaultScoreWeights(), Logger: zerolog.Nop()}
}

func TestRoute_PlumbingLeakNoRules(t *testing.T) {
	r := newRouter(classifier.KeywordClassifier{})
	issue := models.Issue{ID: "i1", Title: "Leaky Faucet", Description: "dripping kitchen faucet for a week"}
	providers := []models.Provider{
		{ID: "specialist", Status: models.ProviderActive, Rating: floatPtr(4.8),
			Specialties: []models.Category{models.CategoryPlumbing}},
		{ID: "generalist", Status: models.ProviderActive, Rating: floatPtr(4.2)},
	}

	res, err := r.Route(context.Background(), issue, providers, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Classification.Category != models.CategoryPlumbing {
		t.Fatalf("expected PLUMBING, got %s", res.Classification.Category)
	}
	if res.Classification.Severity != models.SeverityMedium {
		t.Fatalf("expected MEDIUM, got %s", res.Classification.Severity)
	}
	if res.Decision.Source != models.SourceScoring {
		t.Fatalf("expected SCORING, got %s", res.Decision.Source)
	}
	if res.Decision.ProviderID == nil || *res.Decision.ProviderID != "specialist" {
		t.Fatalf("expected specialist chosen, got %v", res.Decision.ProviderID)
	}
	if res.Decision.Score == nil {
		t.Fatal("expected score on scoring decisions")
	}
}

func TestRoute_UrgentElectricalRuleOverride(t *testing.T) {
	r := newRouter(fixedClassifier{result: models.Classification{
		Category: models.CategoryElectrical, Severity: models.SeverityUrgent,
		EstimatedCost: 300, Confidence: 0.9, Source: classifier.SourceRemote,
	}})
	issue := models.Issue{ID: "i2", Title: "Sparking panel"}
	providers := []models.Provider{
		{ID: "P1", Status: models.ProviderActive},
		{ID: "P9", Status: models.ProviderActive},
	}
	rules := []models.AutomationRule{
		{ID: "generic", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 5,
			Actions: models.RuleActions{AssignProviderID: "P1"}},
		{ID: "urgent-electrical", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 15,
			Conditions: models.RuleConditions{
				Category: categoryPtr(models.CategoryElectrical),
				Severity: severityPtr(models.SeverityUrgent),
			},
			Actions: models.RuleActions{AssignProviderID: "P9"}},
	}

	res, err := r.Route(context.Background(), issue, providers, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Source != models.SourceRule {
		t.Fatalf("expected RULE, got %s", res.Decision.Source)
	}
	if res.Decision.ProviderID == nil || *res.Decision.ProviderID != "P9" {
		t.Fatalf("expected P9, got %v", res.Decision.ProviderID)
	}
	if res.Decision.RuleID != "urgent-electrical" {
		t.Fatalf("expected winning rule id recorded, got %q", res.Decision.RuleID)
	}
	if res.Decision.Score != nil {
		t.Fatal("rule decisions must not carry a score")
	}
}

func TestRoute_RuleProviderInactiveFallsThroughToScoring(t *testing.T) {
	r := newRouter(fixedClassifier{result: models.Classification{
		Category: models.CategoryHVAC, Severity: models.SeverityHigh, Confidence: 0.8,
	}})
	providers := []models.Provider{
		{ID: "named", Status: models.ProviderSuspended,
			Specialties: []models.Category{models.CategoryHVAC}},
		{ID: "other", Status: models.ProviderActive,
			Specialties: []models.Category{models.CategoryHVAC}},
	}
	rules := []models.AutomationRule{
		{ID: "r1", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 10,
			Actions: models.RuleActions{AssignProviderID: "named"}},
	}

	res, err := r.Route(context.Background(), models.Issue{ID: "i3", Title: "x"}, providers, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Source != models.SourceScoring {
		t.Fatalf("expected fall-through to SCORING, got %s", res.Decision.Source)
	}
	if res.Decision.ProviderID == nil || *res.Decision.ProviderID != "other" {
		t.Fatalf("expected active provider, got %v", res.Decision.ProviderID)
	}
}

func TestRoute_ClassifierFailureUsesFallback(t *testing.T) {
	r := newRouter(brokenClassifier{})
	issue := models.Issue{ID: "i4", Title: "Leaky Faucet", Description: "still dripping"}

	res, err := r.Route(context.Background(), issue, nil, nil)
	if err != nil {
		t.Fatalf("classifier failure must not escape route: %v", err)
	}
	if res.Classification.Source != classifier.SourceKeywords {
		t.Fatalf("expected keyword fallback, got %s", res.Classification.Source)
	}
	if res.Decision.Source != models.SourceNone {
		t.Fatalf("expected NONE with no providers, got %s", res.Decision.Source)
	}
}

func TestRoute_NoEligibleProvider(t *testing.T) {
	r := newRouter(classifier.KeywordClassifier{})
	providers := []models.Provider{{ID: "p1", Status: models.ProviderInactive}}

	res, err := r.Route(context.Background(), models.Issue{ID: "i5", Title: "broken gate"}, providers, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Source != models.SourceNone {
		t.Fatalf("expected NONE, got %s", res.Decision.Source)
	}
	if res.Decision.ProviderID != nil {
		t.Fatalf("expected no provider, got %v", res.Decision.ProviderID)
	}
	if res.Decision.ReasonText == "" {
		t.Fatal("expected non-empty reasoning")
	}
}

func TestRoute_MissingIssueIDIsHardError(t *testing.T) {
	r := newRouter(classifier.KeywordClassifier{})
	_, err := r.Route(context.Background(), models.Issue{Title: "no id"}, nil, nil)
	if !errors.Is(err, ErrMissingIssueID) {
		t.Fatalf("expected ErrMissingIssueID, got %v", err)
	}
}

func TestRoute_Deterministic(t *testing.T) {
	r := newRouter(classifier.KeywordClassifier{})
	issue := models.Issue{ID: "i6", Title: "No heat", Description: "furnace not working"}
	providers := []models.Provider{
		{ID: "a", Status: models.ProviderActive, Specialties: []models.Category{models.CategoryHVAC}},
		{ID: "b", Status: models.ProviderActive, Specialties: []models.Category{models.CategoryHVAC}},
	}

	first, err := r.Route(context.Background(), issue, providers, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Route(context.Background(), issue, providers, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *first.Decision.ProviderID != *second.Decision.ProviderID ||
		first.Decision.Source != second.Decision.Source ||
		first.Decision.ReasonCode != second.Decision.ReasonCode {
		t.Fatalf("expected identical decisions, got %+v vs %+v", first.Decision, second.Decision)
	}
}

func TestRoute_NotificationIntents(t *testing.T) {
	r := newRouter(classifier.KeywordClassifier{})
	issue := models.Issue{ID: "i7", Title: "Flooding basement", Description: "emergency, water rising"}
	providers := []models.Provider{
		{ID: "p1", Status: models.ProviderActive, Specialties: []models.Category{models.CategoryPlumbing}},
	}

	res, err := r.Route(context.Background(), issue, providers, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intents := res.Decision.Notifications
	if len(intents) != 2 {
		t.Fatalf("expected company + provider intents, got %d", len(intents))
	}
	if intents[0].Audience != models.AudienceCompany {
		t.Fatalf("first intent must address the company, got %s", intents[0].Audience)
	}
	if intents[1].Audience != models.AudienceProvider || intents[1].ProviderID != "p1" {
		t.Fatalf("second intent must address the chosen provider, got %+v", intents[1])
	}
	for _, in := range intents {
		if !in.HighPriority {
			t.Fatalf("urgent issues must mark all intents high priority: %+v", in)
		}
	}
}

func TestRoute_RuleNotifyPromotesCompanyIntent(t *testing.T) {
	r := newRouter(fixedClassifier{result: models.Classification{
		Category: models.CategoryAppliance, Severity: models.SeverityMedium, Confidence: 0.8,
	}})
	providers := []models.Provider{{ID: "p1", Status: models.ProviderActive}}
	rules := []models.AutomationRule{
		{ID: "r-notify", Trigger: models.TriggerIssueCreated, IsActive: true, Priority: 5,
			Actions: models.RuleActions{AssignProviderID: "p1", Notify: true}},
	}

	res, err := r.Route(context.Background(), models.Issue{ID: "i9", Title: "dishwasher door"}, providers, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Source != models.SourceRule {
		t.Fatalf("expected RULE, got %s", res.Decision.Source)
	}
	intents := res.Decision.Notifications
	if len(intents) != 2 {
		t.Fatalf("expected company + provider intents, got %d", len(intents))
	}
	if !intents[0].HighPriority {
		t.Fatal("rule notify action must promote the company intent")
	}
	if intents[1].HighPriority {
		t.Fatal("notify action must not promote the provider intent for a medium issue")
	}
}

func TestRoute_CompanyIntentOnlyWhenUnrouted(t *testing.T) {
	r := newRouter(classifier.KeywordClassifier{})

	res, err := r.Route(context.Background(), models.Issue{ID: "i8", Title: "dusty hallway"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Decision.Notifications) != 1 {
		t.Fatalf("expected a single company intent, got %d", len(res.Decision.Notifications))
	}
	if res.Decision.Notifications[0].HighPriority {
		t.Fatal("non-urgent issue must not be high priority")
	}
}
