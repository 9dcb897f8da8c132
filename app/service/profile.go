package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"

	"github.com/sirupsen/logrus"
)

type profileRepository interface {
	Find(ctx context.Context, userID uint64) (*entity.UserProfile, error)
	Upsert(ctx context.Context, profile *entity.UserProfile) error
	UpdatePicture(ctx context.Context, userID uint64, objectName string, now time.Time) error
}

// ObjectStorage stores profile pictures. The production implementation
// keeps them in an S3 bucket.
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, body io.Reader, contentType string) error
	Delete(ctx context.Context, objectName string) error
	ObjectURL(objectName string) string
}

// ProfileInput carries the caller-editable profile fields.
type ProfileInput struct {
	FullName     string
	City         string
	Country      string
	Gender       string
	Age          int
	Occupation   string
	MobileNumber int64
}

// ProfileService manages user profiles and their pictures.
type ProfileService struct {
	profileRepo profileRepository
	storage     ObjectStorage
	asyncRunner AsyncRunner
}

type ProfileOption func(*ProfileService)

func WithProfileAsyncRunner(runner AsyncRunner) ProfileOption {
	return func(s *ProfileService) {
		s.asyncRunner = runner
	}
}

func NewProfileService(profileRepo profileRepository, storage ObjectStorage, opts ...ProfileOption) *ProfileService {
	s := &ProfileService{
		profileRepo: profileRepo,
		storage:     storage,
		asyncRunner: defaultAsyncRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's profile, or nil when none has been created yet.
func (s *ProfileService) Get(ctx context.Context, userID uint64) (*entity.UserProfile, error) {
	return s.profileRepo.Find(ctx, userID)
}

// Upsert creates or replaces the editable profile fields. The picture is
// managed separately and survives profile updates.
func (s *ProfileService) Upsert(ctx context.Context, userID uint64, input ProfileInput) error {
	return s.profileRepo.Upsert(ctx, &entity.UserProfile{
		UserID:         userID,
		FullName:       input.FullName,
		City:           input.City,
		Country:        input.Country,
		Gender:         input.Gender,
		Age:            input.Age,
		Occupation:     input.Occupation,
		MobileNumber:   input.MobileNumber,
		LastModifiedAt: time.Now().UTC(),
	})
}

// UpdatePicture processes the uploaded image, stores it under a fresh
// object name, and records it on the profile. The previous picture object
// is deleted best effort; a failed delete leaves an orphan in the bucket
// but never fails the upload.
func (s *ProfileService) UpdatePicture(ctx context.Context, userID uint64, upload io.Reader) (string, error) {
	picture, err := ProcessProfilePicture(upload)
	if err != nil {
		return "", err
	}

	existing, err := s.profileRepo.Find(ctx, userID)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("public/profile/%d-%d.jpg", userID, time.Now().UTC().Unix())
	if err := s.storage.Upload(ctx, objectName, bytes.NewReader(picture), "image/jpeg"); err != nil {
		return "", err
	}

	if err := s.profileRepo.UpdatePicture(ctx, userID, objectName, time.Now().UTC()); err != nil {
		return "", err
	}

	if existing != nil && existing.PictureObjectName.Valid {
		s.deleteOldPicture(existing.PictureObjectName.String)
	}

	return s.storage.ObjectURL(objectName), nil
}

// PictureURL resolves the public URL of a stored picture, or "" when the
// profile has none.
func (s *ProfileService) PictureURL(objectName sql.NullString) string {
	if !objectName.Valid {
		return ""
	}
	return s.storage.ObjectURL(objectName.String)
}

func (s *ProfileService) deleteOldPicture(objectName string) {
	s.asyncRunner(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.storage.Delete(ctx, objectName); err != nil {
			logrus.WithField("object", objectName).WithError(err).Error("failed to delete replaced profile picture")
		}
	})
}
