package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/todmy/reasoning-engine/internal/errors"
)

var analysisRowColumns = []string{
	"id", "user_id", "kind", "claim", "reasoning_type", "validity", "result", "claim_embedding", "created_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestAnalysisRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAnalysisRepository(db)

	emb := pgvector.NewVector([]float32{0.1, 0.2})
	a := &Analysis{
		UserID:         uuid.New(),
		Kind:           KindChain,
		Claim:          "Exercise improves mental health",
		ReasoningType:  "deductive",
		Validity:       0.96,
		Result:         json.RawMessage(`{"reasoning_chains":[]}`),
		ClaimEmbedding: &emb,
	}

	mock.ExpectExec("INSERT INTO reasoning_analyses").
		WithArgs(sqlmock.AnyArg(), a.UserID.String(), KindChain, a.Claim, "deductive", 0.96,
			[]byte(`{"reasoning_chains":[]}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_CreateWithoutEmbedding(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAnalysisRepository(db)

	mock.ExpectExec("INSERT INTO reasoning_analyses").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), KindNetwork, "c", "inductive", 0.5,
			sqlmock.AnyArg(), nilArg{}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &Analysis{
		UserID: uuid.New(), Kind: KindNetwork, Claim: "c", ReasoningType: "inductive", Validity: 0.5,
		Result: json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type nilArg struct{}

func (nilArg) Match(v driver.Value) bool { return v == nil }

func TestAnalysisRepository_CreateError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO reasoning_analyses").WillReturnError(sql.ErrConnDone)

	err := NewPostgresAnalysisRepository(db).Create(context.Background(), &Analysis{Result: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestAnalysisRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAnalysisRepository(db)

	id := uuid.New()
	userID := uuid.New()
	created := time.Now().UTC()

	rows := sqlmock.NewRows(analysisRowColumns).
		AddRow(id.String(), userID.String(), KindChain, "claim", "abductive", 0.8, []byte(`{"k":1}`), "[1,2,3]", created)
	mock.ExpectQuery("SELECT (.+) FROM reasoning_analyses WHERE id").
		WithArgs(id.String()).
		WillReturnRows(rows)

	a, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.Equal(t, id, a.ID)
	assert.Equal(t, userID, a.UserID)
	assert.Equal(t, "abductive", a.ReasoningType)
	assert.JSONEq(t, `{"k":1}`, string(a.Result))
	require.NotNil(t, a.ClaimEmbedding)
	assert.Equal(t, []float32{1, 2, 3}, a.ClaimEmbedding.Slice())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM reasoning_analyses WHERE id").
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	a, err := NewPostgresAnalysisRepository(db).GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestAnalysisRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	userID := uuid.New()

	rows := sqlmock.NewRows(analysisRowColumns).
		AddRow(uuid.NewString(), userID.String(), KindChain, "a", "deductive", 0.9, []byte(`{}`), nil, time.Now()).
		AddRow(uuid.NewString(), userID.String(), KindNetwork, "b", "inductive", 0.7, []byte(`{}`), nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(userID.String(), 20, 0).
		WillReturnRows(rows)

	list, err := NewPostgresAnalysisRepository(db).ListByUser(context.Background(), userID, 0, -5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Claim)
	assert.Nil(t, list[0].ClaimEmbedding)
	assert.Equal(t, KindNetwork, list[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_FindSimilar(t *testing.T) {
	db, mock := newMock(t)
	userID := uuid.New()
	query := pgvector.NewVector([]float32{1, 0})

	rows := sqlmock.NewRows(append(analysisRowColumns, "similarity")).
		AddRow(uuid.NewString(), userID.String(), KindChain, "close", "deductive", 0.9, []byte(`{}`), "[1,0.1]", time.Now(), 0.95)
	mock.ExpectQuery("claim_embedding <=>").
		WithArgs(userID.String(), sqlmock.AnyArg(), 0.75, 10).
		WillReturnRows(rows)

	results, err := NewPostgresAnalysisRepository(db).FindSimilar(context.Background(), userID, query, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].Analysis.Claim)
	assert.InDelta(t, 0.95, results[0].Similarity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAnalysisRepository(db)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM reasoning_analyses").
		WithArgs(id.String(), userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), id, userID))

	mock.ExpectExec("DELETE FROM reasoning_analyses").
		WithArgs(id.String(), userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), id, userID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("claim_embedding vector(1536)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db, 1536))
	assert.NoError(t, mock.ExpectationsWereMet())
}
