package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, password_hash, is_verified, verification_token, created_at, last_modified_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.VerificationToken,
		user.CreatedAt,
		user.LastModifiedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, email, password_hash, is_verified, verification_token, created_at, last_modified_at
		FROM users WHERE email = ?
	`
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.VerificationToken,
		&user.CreatedAt,
		&user.LastModifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT id, email, password_hash, is_verified, verification_token, created_at, last_modified_at
		FROM users WHERE id = ?
	`
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.VerificationToken,
		&user.CreatedAt,
		&user.LastModifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, email string, now time.Time) error {
	query := `UPDATE users SET is_verified = 1, last_modified_at = ? WHERE email = ?`
	_, err := r.db.ExecContext(ctx, query, now, email)
	return err
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uint64, passwordHash string, now time.Time) error {
	query := `UPDATE users SET password_hash = ?, last_modified_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, passwordHash, now, id)
	return err
}

type ResetTokenRepository struct {
	db DBTX
}

func NewResetTokenRepository(db DBTX) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, token *entity.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, token, is_consumed, valid_till, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.Token,
		token.IsConsumed,
		token.ValidTill,
		token.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = uint64(id)
	return nil
}

func (r *ResetTokenRepository) FindActive(ctx context.Context, userID uint64, token string, now time.Time) (*entity.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token, is_consumed, valid_till, created_at
		FROM password_reset_tokens
		WHERE user_id = ? AND token = ? AND is_consumed = 0 AND valid_till > ?
	`
	rt := &entity.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, userID, token, now).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.IsConsumed,
		&rt.ValidTill,
		&rt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// Consume flips is_consumed in a single conditional update. Exactly one of
// any number of concurrent callers presenting the same token sees true;
// expired, consumed and unknown tokens all report false.
func (r *ResetTokenRepository) Consume(ctx context.Context, userID uint64, token string, now time.Time) (bool, error) {
	query := `
		UPDATE password_reset_tokens SET is_consumed = 1
		WHERE user_id = ? AND token = ? AND is_consumed = 0 AND valid_till > ?
	`
	result, err := r.db.ExecContext(ctx, query, userID, token, now)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
