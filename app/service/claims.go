package service

import (
	"context"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"
)

type claimsRepository interface {
	Find(ctx context.Context, userID uint64) (*entity.UserClaims, error)
	Upsert(ctx context.Context, claims *entity.UserClaims) error
	List(ctx context.Context) ([]*entity.UserClaims, error)
}

// ClaimsService resolves and administers per-user authorization claims.
// A user without a claims record has no privileges.
type ClaimsService struct {
	claimsRepo claimsRepository
	userRepo   userRepository
}

func NewClaimsService(claimsRepo claimsRepository, userRepo userRepository) *ClaimsService {
	return &ClaimsService{claimsRepo: claimsRepo, userRepo: userRepo}
}

func (s *ClaimsService) ResolveClaims(ctx context.Context, userID uint64) (ClaimSet, error) {
	var set ClaimSet

	claims, err := s.claimsRepo.Find(ctx, userID)
	if err != nil {
		return set, err
	}
	if claims != nil {
		set.IsAdmin = claims.IsAdmin
		set.IsSuperAdmin = claims.IsSuperAdmin
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return set, err
	}
	if user != nil {
		set.IsEmailVerified = user.IsVerified
	}

	return set, nil
}

func (s *ClaimsService) UpdateClaims(ctx context.Context, targetUserID uint64, isAdmin, isSuperAdmin bool, updatedBy uint64) error {
	user, err := s.userRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidUser
	}

	return s.claimsRepo.Upsert(ctx, &entity.UserClaims{
		UserID:         targetUserID,
		IsAdmin:        isAdmin,
		IsSuperAdmin:   isSuperAdmin,
		LastModifiedBy: updatedBy,
		LastModifiedAt: time.Now().UTC(),
	})
}

func (s *ClaimsService) ListClaims(ctx context.Context) ([]*entity.UserClaims, error) {
	return s.claimsRepo.List(ctx)
}
