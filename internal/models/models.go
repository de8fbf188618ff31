package models

import "time"

type Category string

const (
	CategoryPlumbing    Category = "PLUMBING"
	CategoryElectrical  Category = "ELECTRICAL"
	CategoryAppliance   Category = "APPLIANCE"
	CategoryHVAC        Category = "HVAC"
	CategoryStructural  Category = "STRUCTURAL"
	CategoryPestControl Category = "PEST_CONTROL"
	CategoryCleaning    Category = "CLEANING"
	CategorySecurity    Category = "SECURITY"
	CategoryLandscaping Category = "LANDSCAPING"
	CategoryPayment     Category = "PAYMENT"
	CategoryGeneral     Category = "GENERAL"
)

func Categories() []Category {
	return []Category{
		CategoryPlumbing, CategoryElectrical, CategoryAppliance, CategoryHVAC,
		CategoryStructural, CategoryPestControl, CategoryCleaning, CategorySecurity,
		CategoryLandscaping, CategoryPayment, CategoryGeneral,
	}
}

func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
	SeverityUrgent Severity = "URGENT"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityUrgent:
		return true
	default:
		return false
	}
}

type ProviderStatus string

const (
	ProviderActive    ProviderStatus = "ACTIVE"
	ProviderInactive  ProviderStatus = "INACTIVE"
	ProviderSuspended ProviderStatus = "SUSPENDED"
)

type Issue struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PropertyType string    `json:"property_type,omitempty"`
}

// Classification is the structured output of the classifier step. Category,
// severity, and confidence are always populated together; an issue without a
// Classification row has not been classified yet.
type Classification struct {
	ID                string    `json:"id"`
	IssueID           string    `json:"issue_id"`
	Category          Category  `json:"category"`
	Severity          Severity  `json:"severity"`
	EstimatedCost     float64   `json:"estimated_cost"`
	EstimatedDuration float64   `json:"estimated_duration_hours"`
	Confidence        float64   `json:"confidence"`
	Reasoning         string    `json:"reasoning,omitempty"`
	Source            string    `json:"source"`
	ModelVersion      string    `json:"model_version,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type Availability struct {
	Immediate bool `json:"immediate"`
	Within24h bool `json:"within_24h"`
	Weekends  bool `json:"weekends"`
}

type Provider struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Specialties   []Category     `json:"specialties"`
	Rating        *float64       `json:"rating,omitempty"`
	CompletedJobs int            `json:"completed_jobs"`
	IsPreferred   bool           `json:"is_preferred"`
	Availability  Availability   `json:"availability"`
	Status        ProviderStatus `json:"status"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (p Provider) HasSpecialty(c Category) bool {
	for _, s := range p.Specialties {
		if s == c {
			return true
		}
	}
	return false
}

type RuleTrigger string

const (
	TriggerIssueCreated RuleTrigger = "ISSUE_CREATED"
)

// RuleConditions is the typed predicate of an automation rule. Nil fields are
// wildcards that always match.
type RuleConditions struct {
	Category *Category `json:"category,omitempty"`
	Severity *Severity `json:"severity,omitempty"`
	MinCost  *float64  `json:"min_cost,omitempty"`
	MaxCost  *float64  `json:"max_cost,omitempty"`
}

type RuleActions struct {
	AssignProviderID string `json:"assign_provider_id,omitempty"`
	Notify           bool   `json:"notify,omitempty"`
	Escalate         bool   `json:"escalate,omitempty"`
}

type AutomationRule struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Trigger    RuleTrigger    `json:"trigger"`
	Conditions RuleConditions `json:"conditions"`
	Actions    RuleActions    `json:"actions"`
	Priority   int            `json:"priority"`
	IsActive   bool           `json:"is_active"`
}

type DecisionSource string

const (
	SourceRule    DecisionSource = "RULE"
	SourceScoring DecisionSource = "SCORING"
	SourceNone    DecisionSource = "NONE"
)

type Audience string

const (
	AudienceCompany  Audience = "company"
	AudienceProvider Audience = "provider"
)

type NotificationIntent struct {
	Audience     Audience       `json:"audience"`
	ProviderID   string         `json:"provider_id,omitempty"`
	Title        string         `json:"title"`
	Body         string         `json:"body"`
	HighPriority bool           `json:"high_priority"`
	Payload      map[string]any `json:"payload,omitempty"`
}

type RoutingDecision struct {
	ID            string               `json:"id"`
	IssueID       string               `json:"issue_id"`
	ProviderID    *string              `json:"provider_id"`
	Source        DecisionSource       `json:"source"`
	RuleID        string               `json:"rule_id,omitempty"`
	Score         *float64             `json:"score,omitempty"`
	ReasonCode    string               `json:"reason_code"`
	ReasonText    string               `json:"reason_text"`
	Trace         []byte               `json:"trace,omitempty"`
	Notifications []NotificationIntent `json:"notifications"`
	DecidedAt     time.Time            `json:"decided_at"`
}

type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Summary    []byte    `json:"summary"`
}
