package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"
)

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Find(ctx context.Context, userID uint64) (*entity.UserProfile, error) {
	query := `
		SELECT id, user_id, full_name, city, country, gender, age, occupation, mobile_number, picture_object_name, last_modified_at
		FROM user_profiles WHERE user_id = ?
	`
	profile := &entity.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.City,
		&profile.Country,
		&profile.Gender,
		&profile.Age,
		&profile.Occupation,
		&profile.MobileNumber,
		&profile.PictureObjectName,
		&profile.LastModifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Upsert writes every profile field except the picture object name, which is
// owned by UpdatePicture.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *entity.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, full_name, city, country, gender, age, occupation, mobile_number, last_modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			full_name = VALUES(full_name),
			city = VALUES(city),
			country = VALUES(country),
			gender = VALUES(gender),
			age = VALUES(age),
			occupation = VALUES(occupation),
			mobile_number = VALUES(mobile_number),
			last_modified_at = VALUES(last_modified_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.City,
		profile.Country,
		profile.Gender,
		profile.Age,
		profile.Occupation,
		profile.MobileNumber,
		profile.LastModifiedAt,
	)
	return err
}

func (r *ProfileRepository) UpdatePicture(ctx context.Context, userID uint64, objectName string, now time.Time) error {
	query := `
		INSERT INTO user_profiles (user_id, picture_object_name, last_modified_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			picture_object_name = VALUES(picture_object_name),
			last_modified_at = VALUES(last_modified_at)
	`
	_, err := r.db.ExecContext(ctx, query, userID, objectName, now)
	return err
}
