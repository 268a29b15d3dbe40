// Package repository persists scoring snapshots and labeled training
// outcomes. Snapshots are append-only history; outcomes feed retraining.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadqual_backend/internal/leads/domain"
)

var ErrNotFound = errors.New("snapshot not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ScoreSnapshot is one persisted scoring result. The full PredictiveScore
// rides along as a JSON payload; the indexed columns exist for querying.
type ScoreSnapshot struct {
	ID                 uuid.UUID
	LeadID             uuid.UUID
	PriorityLevel      string
	PriorityScore      float64
	QualificationScore int
	ClosingProbability float64
	ModelConfidence    float64
	Degraded           bool
	Score              domain.PredictiveScore
	ScoredAt           time.Time
	CreatedAt          time.Time
}

// TrainingOutcome is one labeled observation: the feature vector a lead
// was scored with, and whether the transaction eventually closed.
type TrainingOutcome struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Features   []float64
	Closed     bool
	RecordedAt time.Time
}

// SaveSnapshot appends a scoring result.
func (r *Repository) SaveSnapshot(ctx context.Context, snap ScoreSnapshot) error {
	payload, err := json.Marshal(snap.Score)
	if err != nil {
		return fmt.Errorf("encoding score payload: %w", err)
	}

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_score_snapshots (
			id, lead_id, priority_level, priority_score, qualification_score,
			closing_probability, model_confidence, degraded, payload, scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		snap.ID, snap.LeadID, snap.PriorityLevel, snap.PriorityScore, snap.QualificationScore,
		snap.ClosingProbability, snap.ModelConfidence, snap.Degraded, payload, snap.ScoredAt,
	)
	return err
}

// LatestSnapshot returns the most recent snapshot for a lead.
func (r *Repository) LatestSnapshot(ctx context.Context, leadID uuid.UUID) (ScoreSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, priority_level, priority_score, qualification_score,
		       closing_probability, model_confidence, degraded, payload, scored_at, created_at
		FROM lead_score_snapshots
		WHERE lead_id = $1
		ORDER BY scored_at DESC
		LIMIT 1
	`, leadID)

	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScoreSnapshot{}, ErrNotFound
	}
	return snap, err
}

// ListTopLeads returns the latest snapshot per lead, hottest first.
func (r *Repository) ListTopLeads(ctx context.Context, limit int) ([]ScoreSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, priority_level, priority_score, qualification_score,
		       closing_probability, model_confidence, degraded, payload, scored_at, created_at
		FROM (
			SELECT DISTINCT ON (lead_id)
			       id, lead_id, priority_level, priority_score, qualification_score,
			       closing_probability, model_confidence, degraded, payload, scored_at, created_at
			FROM lead_score_snapshots
			ORDER BY lead_id, scored_at DESC
		) latest
		ORDER BY priority_score DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ScoreSnapshot, 0, limit)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, snap)
	}
	return items, rows.Err()
}

// StaleLeadIDs returns leads whose latest snapshot predates the cutoff,
// for periodic rescoring.
func (r *Repository) StaleLeadIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id
		FROM lead_score_snapshots
		GROUP BY lead_id
		HAVING MAX(scored_at) < $1
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordOutcome stores a labeled training observation.
func (r *Repository) RecordOutcome(ctx context.Context, outcome TrainingOutcome) error {
	features, err := json.Marshal(outcome.Features)
	if err != nil {
		return fmt.Errorf("encoding feature vector: %w", err)
	}
	if outcome.ID == uuid.Nil {
		outcome.ID = uuid.New()
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_training_outcomes (id, lead_id, features, closed, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, outcome.ID, outcome.LeadID, features, outcome.Closed, outcome.RecordedAt)
	return err
}

// CountOutcomes returns how many labeled observations exist, used to
// decide between real and synthetic training data.
func (r *Repository) CountOutcomes(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lead_training_outcomes`).Scan(&count)
	return count, err
}

// TrainingOutcomes returns all labeled observations whose feature vectors
// have the expected width. Observations from older feature-vector
// versions are skipped, not errors.
func (r *Repository) TrainingOutcomes(ctx context.Context, featureCount int) ([]TrainingOutcome, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, features, closed, recorded_at
		FROM lead_training_outcomes
		ORDER BY recorded_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TrainingOutcome, 0)
	for rows.Next() {
		var (
			outcome TrainingOutcome
			raw     []byte
		)
		if err := rows.Scan(&outcome.ID, &outcome.LeadID, &raw, &outcome.Closed, &outcome.RecordedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &outcome.Features); err != nil {
			return nil, fmt.Errorf("decoding feature vector: %w", err)
		}
		if len(outcome.Features) != featureCount {
			continue
		}
		items = append(items, outcome)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (ScoreSnapshot, error) {
	var (
		snap    ScoreSnapshot
		payload []byte
	)
	err := row.Scan(
		&snap.ID, &snap.LeadID, &snap.PriorityLevel, &snap.PriorityScore,
		&snap.QualificationScore, &snap.ClosingProbability, &snap.ModelConfidence,
		&snap.Degraded, &payload, &snap.ScoredAt, &snap.CreatedAt,
	)
	if err != nil {
		return ScoreSnapshot{}, err
	}
	if err := json.Unmarshal(payload, &snap.Score); err != nil {
		return ScoreSnapshot{}, fmt.Errorf("decoding score payload: %w", err)
	}
	return snap, nil
}
