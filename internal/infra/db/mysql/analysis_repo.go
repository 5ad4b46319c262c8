package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	domain "github.com/contentedge/insight/internal/domain/analysis"
)

// AnalysisRepository persists analysis records in MySQL. Embeddings are
// stored as JSON text since MySQL has no vector type; the Postgres flavor
// uses pgvector.
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create is append-only: records are immutable, so there is no upsert and
// no update path.
func (r *AnalysisRepository) Create(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO content_analyses
 (id, owner_id, kind, subject, virality_score, emotional_tone, suggestions,
  vision_analysis, transcript, embeddings, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?);
`
	suggestions, err := json.Marshal(rec.Suggestions)
	if err != nil {
		return err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q,
		rec.ID, rec.Owner, rec.Kind, rec.Subject,
		rec.ViralityScore, rec.EmotionalTone, string(suggestions),
		nullable(rec.VisionAnalysis), nullable(rec.Transcript),
		embeddingsJSON(rec.Embeddings), created,
	)
	return err
}

// GetByID is owner-scoped: a record belonging to someone else is
// indistinguishable from an absent one.
func (r *AnalysisRepository) GetByID(ctx context.Context, owner string, id domain.RecordID) (*domain.Record, error) {
	const q = `
SELECT id, owner_id, kind, subject, virality_score, emotional_tone, suggestions,
       vision_analysis, transcript, embeddings, created_at
FROM content_analyses
WHERE owner_id=? AND id=? LIMIT 1;
`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// ListByOwner returns all of the owner's records, newest first.
func (r *AnalysisRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Record, error) {
	const q = `
SELECT id, owner_id, kind, subject, virality_score, emotional_tone, suggestions,
       vision_analysis, transcript, embeddings, created_at
FROM content_analyses
WHERE owner_id=?
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// StatsSince aggregates the trend summary for the cron job and the trends
// endpoint.
func (r *AnalysisRepository) StatsSince(ctx context.Context, since time.Time) (domain.Stats, error) {
	var s domain.Stats
	const q = `
SELECT COUNT(*), COALESCE(AVG(virality_score),0)
FROM content_analyses
WHERE created_at >= ?;
`
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&s.Total, &s.AvgScore); err != nil {
		return domain.Stats{}, err
	}

	const toneQ = `
SELECT emotional_tone
FROM content_analyses
WHERE created_at >= ?
GROUP BY emotional_tone
ORDER BY COUNT(*) DESC, emotional_tone ASC
LIMIT 1;
`
	err := r.db.QueryRowContext(ctx, toneQ, since).Scan(&s.TopTone)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Stats{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	var suggestions string
	var vision, transcript, embeddings sql.NullString
	if err := row.Scan(
		&rec.ID, &rec.Owner, &rec.Kind, &rec.Subject,
		&rec.ViralityScore, &rec.EmotionalTone, &suggestions,
		&vision, &transcript, &embeddings, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(suggestions), &rec.Suggestions); err != nil {
		return nil, err
	}
	rec.VisionAnalysis = vision.String
	rec.Transcript = transcript.String
	if embeddings.Valid && embeddings.String != "" {
		if err := json.Unmarshal([]byte(embeddings.String), &rec.Embeddings); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func embeddingsJSON(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	return string(b)
}
