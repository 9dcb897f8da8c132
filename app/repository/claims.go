package repository

import (
	"context"
	"database/sql"

	"github.com/marchingbytes/identity-service/app/entity"
)

type ClaimsRepository struct {
	db DBTX
}

func NewClaimsRepository(db DBTX) *ClaimsRepository {
	return &ClaimsRepository{db: db}
}

func (r *ClaimsRepository) Find(ctx context.Context, userID uint64) (*entity.UserClaims, error) {
	query := `
		SELECT id, user_id, is_admin, is_super_admin, last_modified_by, last_modified_at
		FROM user_claims WHERE user_id = ?
	`
	claims := &entity.UserClaims{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&claims.ID,
		&claims.UserID,
		&claims.IsAdmin,
		&claims.IsSuperAdmin,
		&claims.LastModifiedBy,
		&claims.LastModifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Upsert relies on the unique index on user_claims.user_id.
func (r *ClaimsRepository) Upsert(ctx context.Context, claims *entity.UserClaims) error {
	query := `
		INSERT INTO user_claims (user_id, is_admin, is_super_admin, last_modified_by, last_modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			is_admin = VALUES(is_admin),
			is_super_admin = VALUES(is_super_admin),
			last_modified_by = VALUES(last_modified_by),
			last_modified_at = VALUES(last_modified_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		claims.UserID,
		claims.IsAdmin,
		claims.IsSuperAdmin,
		claims.LastModifiedBy,
		claims.LastModifiedAt,
	)
	return err
}

func (r *ClaimsRepository) List(ctx context.Context) ([]*entity.UserClaims, error) {
	query := `
		SELECT id, user_id, is_admin, is_super_admin, last_modified_by, last_modified_at
		FROM user_claims ORDER BY user_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*entity.UserClaims
	for rows.Next() {
		claims := &entity.UserClaims{}
		if err := rows.Scan(
			&claims.ID,
			&claims.UserID,
			&claims.IsAdmin,
			&claims.IsSuperAdmin,
			&claims.LastModifiedBy,
			&claims.LastModifiedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, claims)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
