package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/reasoning-engine/internal/errors"
)

// Kinds of archived results
const (
	KindChain   = "chain"
	KindNetwork = "network"
)

// Analysis is an archived reasoning result owned by a user.
// ClaimEmbedding is nil when no embedder was configured at save time.
type Analysis struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	Kind           string           `json:"kind"`
	Claim          string           `json:"claim"`
	ReasoningType  string           `json:"reasoning_type"`
	Validity       float64          `json:"validity"`
	Result         json.RawMessage  `json:"result"`
	ClaimEmbedding *pgvector.Vector `json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
}

// AnalysisWithSimilarity is an archived analysis and the cosine similarity of its claim to a query
type AnalysisWithSimilarity struct {
	Analysis   *Analysis `json:"analysis"`
	Similarity float64   `json:"similarity"`
}

// AnalysisRepository stores archived analyses
type AnalysisRepository interface {
	Create(ctx context.Context, a *Analysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Analysis, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Analysis, error)
	FindSimilar(ctx context.Context, userID uuid.UUID, embedding pgvector.Vector, limit int, threshold float64) ([]*AnalysisWithSimilarity, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// PostgresAnalysisRepository implements AnalysisRepository using PostgreSQL with pgvector
type PostgresAnalysisRepository struct {
	db *sql.DB
}

// NewPostgresAnalysisRepository creates a new PostgresAnalysisRepository
func NewPostgresAnalysisRepository(db *sql.DB) *PostgresAnalysisRepository {
	return &PostgresAnalysisRepository{db: db}
}

const analysisColumns = `id, user_id, kind, claim, reasoning_type, validity, result, claim_embedding, created_at`

// Create inserts a new analysis, assigning an ID and timestamp when unset
func (r *PostgresAnalysisRepository) Create(ctx context.Context, a *Analysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO reasoning_analyses (` + analysisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.Kind,
		a.Claim,
		a.ReasoningType,
		a.Validity,
		[]byte(a.Result),
		a.ClaimEmbedding,
		a.CreatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to create analysis", err)
	}
	return nil
}

// GetByID retrieves an analysis by its ID. A missing row yields (nil, nil).
func (r *PostgresAnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM reasoning_analyses WHERE id = $1`

	a, err := scanAnalysis(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get analysis", err)
	}
	return a, nil
}

// ListByUser returns a user's analyses, newest first
func (r *PostgresAnalysisRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + analysisColumns + `
		FROM reasoning_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list analyses", err)
	}
	defer rows.Close()

	analyses := []*Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan analysis", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to list analyses", err)
	}
	return analyses, nil
}

// FindSimilar returns a user's analyses whose claim embedding has cosine
// similarity of at least threshold to embedding, most similar first.
func (r *PostgresAnalysisRepository) FindSimilar(ctx context.Context, userID uuid.UUID, embedding pgvector.Vector, limit int, threshold float64) ([]*AnalysisWithSimilarity, error) {
	if limit <= 0 {
		limit = 10
	}
	if threshold <= 0 {
		threshold = 0.75
	}

	// <=> is cosine distance, so similarity is 1 - distance
	query := `
		SELECT ` + analysisColumns + `,
			   1 - (claim_embedding <=> $2) AS similarity
		FROM reasoning_analyses
		WHERE user_id = $1
		  AND claim_embedding IS NOT NULL
		  AND 1 - (claim_embedding <=> $2) >= $3
		ORDER BY claim_embedding <=> $2
		LIMIT $4
	`

	rows, err := r.db.QueryContext(ctx, query, userID, embedding, threshold, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to search analyses", err)
	}
	defer rows.Close()

	results := []*AnalysisWithSimilarity{}
	for rows.Next() {
		var sim float64
		a, err := scanAnalysis(rows, &sim)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan analysis", err)
		}
		results = append(results, &AnalysisWithSimilarity{Analysis: a, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to search analyses", err)
	}
	return results, nil
}

// Delete removes a user's analysis. Deleting a missing or foreign analysis is NOT_FOUND.
func (r *PostgresAnalysisRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reasoning_analyses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.DatabaseError("failed to delete analysis", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to delete analysis", err)
	}
	if n == 0 {
		return errors.NotFound("analysis")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner, extra ...interface{}) (*Analysis, error) {
	a := &Analysis{}
	var result []byte
	dest := []interface{}{
		&a.ID,
		&a.UserID,
		&a.Kind,
		&a.Claim,
		&a.ReasoningType,
		&a.Validity,
		&result,
		&a.ClaimEmbedding,
		&a.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	a.Result = json.RawMessage(result)
	return a, nil
}
