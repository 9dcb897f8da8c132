package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/marchingbytes/identity-service/config"

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
	claimsColumns = []string{
		"id",
		"user_id",
		"is_admin",
		"is_super_admin",
		"last_modified_by",
		"last_modified_at",
	}
)

const (
	findUserByEmailQuery   = `(?s)SELECT id, email, password_hash, is_verified, verification_token, created_at, last_modified_at\s+FROM users WHERE email = \?`
	findUserByIDQuery      = `(?s)SELECT id, email, password_hash, is_verified, verification_token, created_at, last_modified_at\s+FROM users WHERE id = \?`
	insertUserQuery        = `(?s)INSERT INTO users \(email, password_hash, is_verified, verification_token, created_at, last_modified_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?\)`
	markVerifiedQuery      = `UPDATE users SET is_verified = 1, last_modified_at = \? WHERE email = \?`
	updatePasswordQuery    = `UPDATE users SET password_hash = \?, last_modified_at = \? WHERE id = \?`
	insertResetTokenQuery  = `(?s)INSERT INTO password_reset_tokens \(user_id, token, is_consumed, valid_till, created_at\)\s+VALUES \(\?, \?, \?, \?, \?\)`
	consumeResetTokenQuery = `(?s)UPDATE password_reset_tokens SET is_consumed = 1\s+WHERE user_id = \? AND token = \? AND is_consumed = 0 AND valid_till > \?`
	findClaimsQuery        = `(?s)SELECT id, user_id, is_admin, is_super_admin, last_modified_by, last_modified_at\s+FROM user_claims WHERE user_id = \?`
	upsertClaimsQuery      = `(?s)INSERT INTO user_claims \(user_id, is_admin, is_super_admin, last_modified_by, last_modified_at\)\s+VALUES \(\?, \?, \?, \?, \?\)\s+ON DUPLICATE KEY UPDATE`
)

func errDuplicateForTest() error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			ResetTTL: 30 * time.Minute,
		},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{MinLength: 4},
		},
	}
}

// syncRunner executes side effects inline so tests observe them
// deterministically.
func syncRunner(task func()) {
	task()
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *stubNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *stubNotifier) all() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}
