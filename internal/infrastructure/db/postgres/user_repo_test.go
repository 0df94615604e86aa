package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bookme/auth-service/internal/domain"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

func userRows(u domain.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "email_verified", "created_at"}).
		AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.EmailVerified, u.CreatedAt)
}

func TestUserRepo_GetByUsername(t *testing.T) {
	repo, mock := newUserRepo(t)

	want := domain.User{
		ID:            1,
		Username:      "alice",
		Email:         "a@b.com",
		PasswordHash:  "hash",
		Role:          "CUSTOMER",
		EmailVerified: true,
		CreatedAt:     time.Now(),
	}
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("alice").
		WillReturnRows(userRows(want))

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != want.ID || got.Email != want.Email {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !domain.Is(err, "user_not_found") {
		t.Fatalf("expected user_not_found, got %v", err)
	}
}

func TestUserRepo_GetByUsername_Empty(t *testing.T) {
	repo, _ := newUserRepo(t)

	_, err := repo.GetByUsername(context.Background(), "  ")
	if !domain.Is(err, "missing_field") {
		t.Fatalf("expected missing_field, got %v", err)
	}
}

func TestUserRepo_GetByEmail_Normalizes(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("a@b.com").
		WillReturnRows(userRows(domain.User{ID: 1, Username: "alice", Email: "a@b.com"}))

	if _, err := repo.GetByEmail(context.Background(), "  A@B.COM "); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("email not normalized before query: %v", err)
	}
}

func TestUserRepo_ExistsByUsername(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByUsername(context.Background(), "alice")
	if err != nil || !ok {
		t.Fatalf("expected exists, ok=%v err=%v", ok, err)
	}
}

func TestUserRepo_Create(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "a@b.com", "hash", "CUSTOMER", false).
		WillReturnRows(userRows(domain.User{
			ID:           1,
			Username:     "alice",
			Email:        "a@b.com",
			PasswordHash: "hash",
			Role:         "CUSTOMER",
			CreatedAt:    time.Now(),
		}))

	got, err := repo.Create(context.Background(), domain.User{
		Username:     "alice",
		Email:        "A@B.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected id from RETURNING, got %d", got.ID)
	}
}

func TestUserRepo_Create_UniqueViolations(t *testing.T) {
	cases := []struct {
		name       string
		constraint string
		code       string
	}{
		{"email taken", "users_email_key", "email_exists"},
		{"username taken", "users_username_key", "username_exists"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newUserRepo(t)

			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})

			_, err := repo.Create(context.Background(), domain.User{
				Username:     "alice",
				Email:        "a@b.com",
				PasswordHash: "hash",
			})
			if !domain.Is(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestUserRepo_Create_OtherDBError(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), domain.User{
		Username:     "alice",
		Email:        "a@b.com",
		PasswordHash: "hash",
	})
	if !domain.Is(err, "db_unavailable") {
		t.Fatalf("expected db_unavailable, got %v", err)
	}
}

func TestUserRepo_SetEmailVerified(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetEmailVerified(context.Background(), 1); err != nil {
		t.Fatalf("set verified: %v", err)
	}
}

func TestUserRepo_SetEmailVerified_UnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetEmailVerified(context.Background(), 99)
	if !domain.Is(err, "user_not_found") {
		t.Fatalf("expected user_not_found, got %v", err)
	}
}
