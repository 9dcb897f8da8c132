package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"
	"github.com/marchingbytes/identity-service/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

var (
	userColumns = []string{
		"id",
		"email",
		"password_hash",
		"is_verified",
		"verification_token",
		"created_at",
		"last_modified_at",
	}
	resetTokenColumns = []string{
		"id",
		"user_id",
		"token",
		"is_consumed",
		"valid_till",
		"created_at",
	}
)

const (
	findUserByEmailQuery      = `(?s)SELECT id, email, password_hash, is_verified, verification_token, created_at, last_modified_at\s+FROM users WHERE email = \?`
	findUserByIDQuery         = `(?s)SELECT id, email, password_hash, is_verified, verification_token, created_at, last_modified_at\s+FROM users WHERE id = \?`
	insertUserQuery           = `(?s)INSERT INTO users \(email, password_hash, is_verified, verification_token, created_at, last_modified_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?\)`
	markVerifiedQuery         = `UPDATE users SET is_verified = 1, last_modified_at = \? WHERE email = \?`
	updatePasswordQuery       = `UPDATE users SET password_hash = \?, last_modified_at = \? WHERE id = \?`
	insertResetTokenQuery     = `(?s)INSERT INTO password_reset_tokens \(user_id, token, is_consumed, valid_till, created_at\)\s+VALUES \(\?, \?, \?, \?, \?\)`
	findActiveResetTokenQuery = `(?s)SELECT id, user_id, token, is_consumed, valid_till, created_at\s+FROM password_reset_tokens\s+WHERE user_id = \? AND token = \? AND is_consumed = 0 AND valid_till > \?`
	consumeResetTokenQuery    = `(?s)UPDATE password_reset_tokens SET is_consumed = 1\s+WHERE user_id = \? AND token = \? AND is_consumed = 0 AND valid_till > \?`
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func TestUserRepository_Create_SetsID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	user := &entity.User{
		Email:             "user@example.com",
		PasswordHash:      "hash",
		VerificationToken: sql.NullString{String: "token", Valid: true},
		CreatedAt:         now,
		LastModifiedAt:    now,
	}

	mock.ExpectExec(insertUserQuery).
		WithArgs(user.Email, user.PasswordHash, false, user.VerificationToken, now, now).
		WillReturnResult(sqlmock.NewResult(7, 1))

	if err := repository.NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID != 7 {
		t.Fatalf("expected user ID 7, got %d", user.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	user := &entity.User{
		Email:          "user@example.com",
		PasswordHash:   "hash",
		CreatedAt:      now,
		LastModifiedAt: now,
	}

	mock.ExpectExec(insertUserQuery).
		WithArgs(user.Email, user.PasswordHash, false, user.VerificationToken, now, now).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repository.NewUserRepository(db).Create(context.Background(), user)
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repository.NewUserRepository(db).FindByEmail(context.Background(), "missing@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByID_ReturnsUser(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(findUserByIDQuery).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			uint64(3),
			"user@example.com",
			"hash",
			true,
			sql.NullString{String: "token", Valid: true},
			now,
			now,
		))

	user, err := repository.NewUserRepository(db).FindByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.ID != 3 || !user.IsVerified {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_MarkVerified(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectExec(markVerifiedQuery).
		WithArgs(now, "user@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repository.NewUserRepository(db).MarkVerified(context.Background(), "user@example.com", now); err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// The valid_till > ? cutoff lives in the SQL and is evaluated by MySQL, not
// by sqlmock, so these tests pin the statement text and the cutoff argument;
// the rows-affected result models the database's verdict on expiry.
func TestResetTokenRepository_Consume_ActiveToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectExec(consumeResetTokenQuery).
		WithArgs(uint64(1), "reset-token", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	consumed, err := repository.NewResetTokenRepository(db).Consume(context.Background(), 1, "reset-token", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !consumed {
		t.Fatalf("expected token to be consumed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetTokenRepository_Consume_AlreadyConsumed(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectExec(consumeResetTokenQuery).
		WithArgs(uint64(1), "reset-token", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	consumed, err := repository.NewResetTokenRepository(db).Consume(context.Background(), 1, "reset-token", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if consumed {
		t.Fatalf("expected consume to report false for a spent token")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetTokenRepository_FindActive_ReturnsToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(findActiveResetTokenQuery).
		WithArgs(uint64(1), "reset-token", now).
		WillReturnRows(sqlmock.NewRows(resetTokenColumns).AddRow(
			uint64(5),
			uint64(1),
			"reset-token",
			false,
			now.Add(30*time.Minute),
			now,
		))

	token, err := repository.NewResetTokenRepository(db).FindActive(context.Background(), 1, "reset-token", now)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if token == nil || token.ID != 5 || token.IsConsumed {
		t.Fatalf("unexpected token: %+v", token)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetTokenRepository_Create_SetsID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	token := &entity.PasswordResetToken{
		UserID:    1,
		Token:     "reset-token",
		ValidTill: now.Add(30 * time.Minute),
		CreatedAt: now,
	}

	mock.ExpectExec(insertResetTokenQuery).
		WithArgs(token.UserID, token.Token, false, token.ValidTill, token.CreatedAt).
		WillReturnResult(sqlmock.NewResult(11, 1))

	if err := repository.NewResetTokenRepository(db).Create(context.Background(), token); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if token.ID != 11 {
		t.Fatalf("expected token ID 11, got %d", token.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
