package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var userRowColumns = []string{"id", "email", "password_hash", "created_at", "updated_at"}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)

	user := &User{
		Email:        "analyst@example.com",
		PasswordHash: "hashed_password",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if user.ID == uuid.Nil {
		t.Error("expected user ID to be generated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRepository_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err = NewPostgresRepository(db).Create(context.Background(), &User{Email: "dup@example.com"})
	if err != ErrUserExists {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestPostgresRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)

	userID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	email := "analyst@example.com"

	rows := sqlmock.NewRows(userRowColumns).
		AddRow(userID.String(), email, "hashed_password", time.Now(), time.Now())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(rows)

	user, err := repo.GetByID(context.Background(), userID)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if user == nil {
		t.Fatal("expected user to be returned")
	}
	if user.ID != userID {
		t.Errorf("expected ID %s, got %s", userID, user.ID)
	}
	if user.Email != email {
		t.Errorf("expected email %s, got %s", email, user.Email)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	email := "nobody@example.com"

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs(email).
		WillReturnError(sql.ErrNoRows)

	user, err := NewPostgresRepository(db).GetByEmail(context.Background(), email)
	if err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if user != nil {
		t.Error("expected nil user")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
