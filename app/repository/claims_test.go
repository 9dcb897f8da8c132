package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"
	"github.com/marchingbytes/identity-service/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

var claimsColumns = []string{
	"id",
	"user_id",
	"is_admin",
	"is_super_admin",
	"last_modified_by",
	"last_modified_at",
}

const (
	findClaimsQuery   = `(?s)SELECT id, user_id, is_admin, is_super_admin, last_modified_by, last_modified_at\s+FROM user_claims WHERE user_id = \?`
	upsertClaimsQuery = `(?s)INSERT INTO user_claims \(user_id, is_admin, is_super_admin, last_modified_by, last_modified_at\)\s+VALUES \(\?, \?, \?, \?, \?\)\s+ON DUPLICATE KEY UPDATE`
	listClaimsQuery   = `(?s)SELECT id, user_id, is_admin, is_super_admin, last_modified_by, last_modified_at\s+FROM user_claims ORDER BY user_id`
)

func TestClaimsRepository_Find_NoRecord(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findClaimsQuery).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(claimsColumns))

	claims, err := repository.NewClaimsRepository(db).Find(context.Background(), 1)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if claims != nil {
		t.Fatalf("expected nil claims, got %+v", claims)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClaimsRepository_Upsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	claims := &entity.UserClaims{
		UserID:         2,
		IsAdmin:        true,
		IsSuperAdmin:   false,
		LastModifiedBy: 1,
		LastModifiedAt: now,
	}

	mock.ExpectExec(upsertClaimsQuery).
		WithArgs(claims.UserID, claims.IsAdmin, claims.IsSuperAdmin, claims.LastModifiedBy, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repository.NewClaimsRepository(db).Upsert(context.Background(), claims); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClaimsRepository_List(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(listClaimsQuery).
		WillReturnRows(sqlmock.NewRows(claimsColumns).
			AddRow(uint64(1), uint64(10), true, false, uint64(1), now).
			AddRow(uint64(2), uint64(20), true, true, uint64(1), now))

	entries, err := repository.NewClaimsRepository(db).List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].UserID != 20 || !entries[1].IsSuperAdmin {
		t.Fatalf("unexpected entry: %+v", entries[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_Find_ScansPicture(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	columns := []string{
		"id", "user_id", "full_name", "city", "country", "gender",
		"age", "occupation", "mobile_number", "picture_object_name", "last_modified_at",
	}
	mock.ExpectQuery(`(?s)SELECT id, user_id, full_name, city, country, gender, age, occupation, mobile_number, picture_object_name, last_modified_at\s+FROM user_profiles WHERE user_id = \?`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			uint64(1),
			uint64(4),
			"Jane Doe",
			"Pune",
			"India",
			"female",
			30,
			"engineer",
			int64(9999999999),
			sql.NullString{String: "public/profile/4-1.jpg", Valid: true},
			now,
		))

	profile, err := repository.NewProfileRepository(db).Find(context.Background(), 4)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if profile == nil || profile.FullName != "Jane Doe" || !profile.PictureObjectName.Valid {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_UpdatePicture(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectExec(`(?s)INSERT INTO user_profiles \(user_id, picture_object_name, last_modified_at\)\s+VALUES \(\?, \?, \?\)\s+ON DUPLICATE KEY UPDATE`).
		WithArgs(uint64(4), "public/profile/4-2.jpg", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repository.NewProfileRepository(db).UpdatePicture(context.Background(), 4, "public/profile/4-2.jpg", now)
	if err != nil {
		t.Fatalf("update picture failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
