package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/marchingbytes/identity-service/app/entity"
	"github.com/marchingbytes/identity-service/app/repository"
	"github.com/marchingbytes/identity-service/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrIncorrectPassword  = errors.New("incorrect password")
)

type resetTokenRepository interface {
	Create(ctx context.Context, token *entity.PasswordResetToken) error
	Consume(ctx context.Context, userID uint64, token string, now time.Time) (bool, error)
}

type tokenIssuer interface {
	IssueAccessToken(ctx context.Context, userID uint64, fresh bool) (string, error)
	IssueRefreshToken(userID uint64) (string, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	UserID       uint64
	AccessToken  string
	RefreshToken string
}

// SessionService authenticates users and manages password lifecycle.
type SessionService struct {
	db          *sql.DB
	userRepo    userRepository
	resetRepo   resetTokenRepository
	tokens      tokenIssuer
	cfg         *config.Config
	notifier    Notifier
	asyncRunner AsyncRunner
}

type SessionOption func(*SessionService)

func WithSessionAsyncRunner(runner AsyncRunner) SessionOption {
	return func(s *SessionService) {
		s.asyncRunner = runner
	}
}

func NewSessionService(db *sql.DB, userRepo userRepository, resetRepo resetTokenRepository, tokens tokenIssuer, cfg *config.Config, notifier Notifier, opts ...SessionOption) *SessionService {
	s := &SessionService{
		db:          db,
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		tokens:      tokens,
		cfg:         cfg,
		notifier:    notifier,
		asyncRunner: defaultAsyncRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials and issues a fresh access token plus a refresh
// token. Unknown email and wrong password produce the same error so the
// response does not reveal which accounts exist.
func (s *SessionService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccessToken(ctx, user.ID, true)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{UserID: user.ID, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new non-fresh access token.
// Claims are re-resolved, so privilege changes since the last issuance are
// picked up here.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(ctx, claims.UserID, false)
	if err != nil {
		return nil, err
	}

	return &TokenPair{UserID: claims.UserID, AccessToken: accessToken}, nil
}

// RequestPasswordReset records a short-lived single-use token and mails it
// out. Unknown addresses are a silent no-op so the endpoint cannot be used
// to probe for accounts. Earlier outstanding tokens stay valid.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	reset := &entity.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ValidTill: now.Add(s.cfg.Tokens.ResetTTL),
		CreatedAt: now,
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return err
	}

	s.sendResetMail(user.Email, user.ID, token, reset.ValidTill)

	return nil
}

// ResetPassword consumes a reset token and installs the new password in one
// transaction. Concurrent attempts with the same token race on the consume
// update, so at most one of them succeeds.
func (s *SessionService) ResetPassword(ctx context.Context, userID uint64, token, newPassword string) error {
	if err := s.cfg.Password.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	consumed, err := repository.NewResetTokenRepository(tx).Consume(ctx, userID, token, now)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrInvalidResetToken
	}

	if err := repository.NewUserRepository(tx).UpdatePasswordHash(ctx, userID, string(hash), now); err != nil {
		return err
	}

	return tx.Commit()
}

// ChangePassword replaces the password after verifying the existing one.
// Outstanding reset tokens are left untouched.
func (s *SessionService) ChangePassword(ctx context.Context, userID uint64, existingPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidUser
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(existingPassword)); err != nil {
		return ErrIncorrectPassword
	}

	if err := s.cfg.Password.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePasswordHash(ctx, userID, string(hash), time.Now().UTC())
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *SessionService) sendResetMail(email string, userID uint64, token string, validTill time.Time) {
	s.asyncRunner(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		body := fmt.Sprintf(
			"<p>A password reset was requested for your account (id %d).</p><p>Reset token: <b>%s</b></p><p>The token is valid until %s and can be used once.</p>",
			userID, token, validTill.Format(time.RFC3339),
		)
		if err := s.notifier.Send(ctx, email, "Password reset requested", body); err != nil {
			logrus.WithField("email", email).WithError(err).Error("failed to send password reset email")
		}
	})
}
