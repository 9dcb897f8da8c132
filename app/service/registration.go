package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"
	"github.com/marchingbytes/identity-service/app/repository"
	"github.com/marchingbytes/identity-service/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyUsed = errors.New("email address already in use")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidUser      = errors.New("user not found")
	ErrWeakPassword     = errors.New("password does not meet requirements")
	ErrIntegrity        = errors.New("data integrity violation")
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	MarkVerified(ctx context.Context, email string, now time.Time) error
	UpdatePasswordHash(ctx context.Context, id uint64, passwordHash string, now time.Time) error
}

// RegistrationService creates accounts and drives the email verification
// handshake.
type RegistrationService struct {
	userRepo    userRepository
	cfg         *config.Config
	notifier    Notifier
	asyncRunner AsyncRunner
}

type RegistrationOption func(*RegistrationService)

func WithRegistrationAsyncRunner(runner AsyncRunner) RegistrationOption {
	return func(s *RegistrationService) {
		s.asyncRunner = runner
	}
}

func NewRegistrationService(userRepo userRepository, cfg *config.Config, notifier Notifier, opts ...RegistrationOption) *RegistrationService {
	s := &RegistrationService{
		userRepo:    userRepo,
		cfg:         cfg,
		notifier:    notifier,
		asyncRunner: defaultAsyncRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an unverified account and mails out the verification
// token. Mail delivery is best effort and never fails the registration.
func (s *RegistrationService) Register(ctx context.Context, email, password string) (*entity.User, error) {
	email = NormalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyUsed
	}

	if err := s.cfg.Password.Policy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := uuid.New().String()
	user := &entity.User{
		Email:             email,
		PasswordHash:      string(hash),
		IsVerified:        false,
		VerificationToken: sql.NullString{String: token, Valid: true},
		CreatedAt:         now,
		LastModifiedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// lost the race against a concurrent registration
			return nil, fmt.Errorf("%w: email taken concurrently", ErrIntegrity)
		}
		return nil, err
	}

	s.sendVerificationMail(user.Email, token)

	return user, nil
}

// ValidateEmailToken marks the account verified when the presented token
// matches. The stored token is retained, so re-presenting it after
// verification succeeds again without changing anything.
func (s *RegistrationService) ValidateEmailToken(ctx context.Context, email, token string) (bool, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrInvalidEmail
	}

	if !user.VerificationToken.Valid || user.VerificationToken.String != token {
		return false, nil
	}

	if err := s.userRepo.MarkVerified(ctx, email, time.Now().UTC()); err != nil {
		return false, err
	}

	return true, nil
}

// ResendVerificationEmail re-sends the original verification token. Already
// verified accounts are a silent no-op.
func (s *RegistrationService) ResendVerificationEmail(ctx context.Context, userID uint64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidUser
	}
	if user.IsVerified {
		return nil
	}
	if !user.VerificationToken.Valid {
		return fmt.Errorf("%w: verification token missing for user %d", ErrIntegrity, userID)
	}

	s.sendVerificationMail(user.Email, user.VerificationToken.String)

	return nil
}

func (s *RegistrationService) sendVerificationMail(email, token string) {
	s.asyncRunner(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		body := fmt.Sprintf("<p>Welcome! Please verify your email address using the token below.</p><p><b>%s</b></p>", token)
		if err := s.notifier.Send(ctx, email, "Verify your email address", body); err != nil {
			logrus.WithField("email", email).WithError(err).Error("failed to send verification email")
		}
	})
}
