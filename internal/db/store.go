package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixroute/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertIssues(ctx context.Context, issues []models.Issue) (int64, error) {
	rows := make([][]any, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, []any{i.ID, i.CreatedAt, i.Title, i.Description, i.PropertyType})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"issues"}, []string{"id", "created_at", "title", "description", "property_type"}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertProviders(ctx context.Context, providers []models.Provider) (int64, error) {
	rows := make([][]any, 0, len(providers))
	for _, p := range providers {
		rows = append(rows, []any{
			p.ID, p.Name, specialtiesToStrings(p.Specialties), p.Rating, p.CompletedJobs,
			p.IsPreferred, p.Availability.Immediate, p.Availability.Within24h, p.Availability.Weekends,
			string(p.Status), p.UpdatedAt,
		})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"providers"}, []string{
		"id", "name", "specialties", "rating", "completed_jobs",
		"is_preferred", "avail_immediate", "avail_within_24h", "avail_weekends",
		"status", "updated_at",
	}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertRules(ctx context.Context, rules []models.AutomationRule) (int64, error) {
	rows := make([][]any, 0, len(rules))
	for _, r := range rules {
		conditions, err := json.Marshal(r.Conditions)
		if err != nil {
			return 0, err
		}
		actions, err := json.Marshal(r.Actions)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{r.ID, r.Name, string(r.Trigger), conditions, actions, r.Priority, r.IsActive})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"automation_rules"}, []string{
		"id", "name", "trigger", "conditions", "actions", "priority", "is_active",
	}, pgx.CopyFromRows(rows))
}

// GetIssuesForRouting returns issues without a routing decision, oldest first.
func (s *Store) GetIssuesForRouting(ctx context.Context) ([]models.Issue, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT i.id, i.created_at, i.title, i.description, i.property_type
		FROM issues i
		LEFT JOIN routing_decisions d ON d.issue_id = i.id
		WHERE d.id IS NULL
		ORDER BY i.created_at ASC, i.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (s *Store) GetIssue(ctx context.Context, issueID string) (models.Issue, error) {
	var i models.Issue
	err := s.Pool.QueryRow(ctx, `SELECT id, created_at, title, description, property_type FROM issues WHERE id = $1`, issueID).
		Scan(&i.ID, &i.CreatedAt, &i.Title, &i.Description, &i.PropertyType)
	return i, err
}

func (s *Store) ListIssues(ctx context.Context, category, severity, source, q string, limit, offset int) ([]map[string]any, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT i.id, i.created_at, i.title, i.description, i.property_type,
		c.category, c.severity, c.estimated_cost, c.confidence,
		d.provider_id, d.source, d.reason_code
		FROM issues i
		LEFT JOIN classifications c ON c.issue_id = i.id
		LEFT JOIN routing_decisions d ON d.issue_id = i.id`
	var args []any
	var wheres []string
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("c.category = $%d", len(args)))
	}
	if severity != "" {
		args = append(args, severity)
		wheres = append(wheres, fmt.Sprintf("c.severity = $%d", len(args)))
	}
	if source != "" {
		args = append(args, source)
		wheres = append(wheres, fmt.Sprintf("d.source = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(i.title ILIKE $%d OR i.description ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY i.created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			i          models.Issue
			cat        *string
			sev        *string
			cost       *float64
			confidence *float64
			providerID *string
			src        *string
			reasonCode *string
		)
		if err := rows.Scan(&i.ID, &i.CreatedAt, &i.Title, &i.Description, &i.PropertyType,
			&cat, &sev, &cost, &confidence, &providerID, &src, &reasonCode); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":             i.ID,
			"created_at":     i.CreatedAt,
			"title":          i.Title,
			"description":    i.Description,
			"property_type":  i.PropertyType,
			"category":       cat,
			"severity":       sev,
			"estimated_cost": cost,
			"confidence":     confidence,
			"provider_id":    providerID,
			"source":         src,
			"reason_code":    reasonCode,
		})
	}
	return out, rows.Err()
}

func (s *Store) GetIssueDetails(ctx context.Context, issueID string) (map[string]any, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT i.id, i.created_at, i.title, i.description, i.property_type,
			c.id, c.category, c.severity, c.estimated_cost, c.estimated_duration_hours, c.confidence, c.reasoning, c.source, c.model_version, c.created_at,
			d.id, d.provider_id, d.source, d.rule_id, d.score, d.reason_code, d.reason_text, d.trace, d.notifications, d.decided_at
		FROM issues i
		LEFT JOIN classifications c ON c.issue_id = i.id
		LEFT JOIN routing_decisions d ON d.issue_id = i.id
		WHERE i.id = $1
	`, issueID)

	var (
		i models.Issue

		cID          *string
		category     *string
		severity     *string
		cost         *float64
		duration     *float64
		confidence   *float64
		cReasoning   *string
		cSource      *string
		modelVersion *string
		cCreated     *time.Time

		dID           *string
		providerID    *string
		dSource       *string
		ruleID        *string
		score         *float64
		reasonCode    *string
		reasonText    *string
		trace         []byte
		notifications []byte
		decidedAt     *time.Time
	)

	if err := row.Scan(
		&i.ID, &i.CreatedAt, &i.Title, &i.Description, &i.PropertyType,
		&cID, &category, &severity, &cost, &duration, &confidence, &cReasoning, &cSource, &modelVersion, &cCreated,
		&dID, &providerID, &dSource, &ruleID, &score, &reasonCode, &reasonText, &trace, &notifications, &decidedAt,
	); err != nil {
		return nil, err
	}

	result := map[string]any{"issue": i}
	if cID != nil {
		result["classification"] = map[string]any{
			"id":                       *cID,
			"category":                 derefString(category),
			"severity":                 derefString(severity),
			"estimated_cost":           derefFloat(cost),
			"estimated_duration_hours": derefFloat(duration),
			"confidence":               derefFloat(confidence),
			"reasoning":                derefString(cReasoning),
			"source":                   derefString(cSource),
			"model_version":            derefString(modelVersion),
			"created_at":               cCreated,
		}
	}
	if dID != nil {
		result["decision"] = map[string]any{
			"id":            *dID,
			"provider_id":   providerID,
			"source":        derefString(dSource),
			"rule_id":       derefString(ruleID),
			"score":         score,
			"reason_code":   derefString(reasonCode),
			"reason_text":   derefString(reasonText),
			"trace":         rawJSON(trace),
			"notifications": rawJSON(notifications),
			"decided_at":    decidedAt,
		}
	}
	return result, nil
}

func (s *Store) ListProviders(ctx context.Context, status, specialty string) ([]models.Provider, error) {
	query := `SELECT id, name, specialties, rating, completed_jobs,
		is_preferred, avail_immediate, avail_within_24h, avail_weekends, status, updated_at
		FROM providers`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if specialty != "" {
		args = append(args, specialty)
		wheres = append(wheres, fmt.Sprintf("$%d = ANY(specialties)", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Provider
	for rows.Next() {
		var (
			p           models.Provider
			specialties []string
			statusVal   string
		)
		if err := rows.Scan(&p.ID, &p.Name, &specialties, &p.Rating, &p.CompletedJobs,
			&p.IsPreferred, &p.Availability.Immediate, &p.Availability.Within24h, &p.Availability.Weekends,
			&statusVal, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Specialties = specialtiesFromStrings(specialties)
		p.Status = models.ProviderStatus(statusVal)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListRules(ctx context.Context, activeOnly bool) ([]models.AutomationRule, error) {
	query := `SELECT id, name, trigger, conditions, actions, priority, is_active FROM automation_rules`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY priority DESC, id ASC`

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AutomationRule
	for rows.Next() {
		var (
			r          models.AutomationRule
			trigger    string
			conditions []byte
			actions    []byte
		)
		if err := rows.Scan(&r.ID, &r.Name, &trigger, &conditions, &actions, &r.Priority, &r.IsActive); err != nil {
			return nil, err
		}
		r.Trigger = models.RuleTrigger(trigger)
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
				return nil, err
			}
		}
		if len(actions) > 0 {
			if err := json.Unmarshal(actions, &r.Actions); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertClassification(ctx context.Context, tx pgx.Tx, c models.Classification) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO classifications (id, issue_id, category, severity, estimated_cost, estimated_duration_hours, confidence, reasoning, source, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (issue_id) DO UPDATE SET
			category = EXCLUDED.category,
			severity = EXCLUDED.severity,
			estimated_cost = EXCLUDED.estimated_cost,
			estimated_duration_hours = EXCLUDED.estimated_duration_hours,
			confidence = EXCLUDED.confidence,
			reasoning = EXCLUDED.reasoning,
			source = EXCLUDED.source,
			model_version = EXCLUDED.model_version,
			created_at = EXCLUDED.created_at
	`, c.ID, c.IssueID, string(c.Category), string(c.Severity), c.EstimatedCost, c.EstimatedDuration, c.Confidence, c.Reasoning, c.Source, c.ModelVersion, c.CreatedAt)
	return err
}

func (s *Store) UpsertRoutingDecision(ctx context.Context, tx pgx.Tx, d models.RoutingDecision) error {
	notifications, err := json.Marshal(d.Notifications)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO routing_decisions (id, issue_id, provider_id, source, rule_id, score, reason_code, reason_text, trace, notifications, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (issue_id) DO UPDATE SET
			provider_id = EXCLUDED.provider_id,
			source = EXCLUDED.source,
			rule_id = EXCLUDED.rule_id,
			score = EXCLUDED.score,
			reason_code = EXCLUDED.reason_code,
			reason_text = EXCLUDED.reason_text,
			trace = EXCLUDED.trace,
			notifications = EXCLUDED.notifications,
			decided_at = EXCLUDED.decided_at
	`, d.ID, d.IssueID, d.ProviderID, string(d.Source), nullableString(d.RuleID), d.Score, d.ReasonCode, d.ReasonText, d.Trace, notifications, d.DecidedAt)
	return err
}

func (s *Store) CreateRun(ctx context.Context, id, status string) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO runs (id, started_at, status) VALUES ($1, NOW(), $2)`, id, status)
	return err
}

func (s *Store) FinishRun(ctx context.Context, id, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET finished_at = NOW(), status = $2, summary = $3 WHERE id = $1`, id, status, summary)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	var r models.Run
	var finished *time.Time
	err := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&r.ID, &r.StartedAt, &finished, &r.Status, &r.Summary)
	if finished != nil {
		r.FinishedAt = *finished
	}
	return r, err
}

func specialtiesToStrings(specialties []models.Category) []string {
	out := make([]string, 0, len(specialties))
	for _, s := range specialties {
		out = append(out, string(s))
	}
	return out
}

func specialtiesFromStrings(values []string) []models.Category {
	out := make([]models.Category, 0, len(values))
	for _, v := range values {
		out = append(out, models.Category(v))
	}
	return out
}

func scanIssues(rows pgx.Rows) ([]models.Issue, error) {
	var out []models.Issue
	for rows.Next() {
		var i models.Issue
		if err := rows.Scan(&i.ID, &i.CreatedAt, &i.Title, &i.Description, &i.PropertyType); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func rawJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	return v
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
