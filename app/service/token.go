package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marchingbytes/identity-service/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of every token this service signs. Access tokens
// carry the full authorization snapshot resolved at issuance time; refresh
// tokens carry identity only and are never fresh.
type Claims struct {
	UserID          uint64 `json:"user_id"`
	TokenType       string `json:"token_type"`
	Fresh           bool   `json:"fresh"`
	IsEmailVerified bool   `json:"is_email_verified"`
	IsAdmin         bool   `json:"is_admin"`
	IsSuperAdmin    bool   `json:"is_super_admin"`
	jwt.RegisteredClaims
}

// ClaimSet is the point-in-time authorization state of a user.
type ClaimSet struct {
	IsAdmin         bool
	IsSuperAdmin    bool
	IsEmailVerified bool
}

type ClaimsResolver interface {
	ResolveClaims(ctx context.Context, userID uint64) (ClaimSet, error)
}

type TokenService struct {
	cfg      *config.Config
	resolver ClaimsResolver
}

func NewTokenService(cfg *config.Config, resolver ClaimsResolver) *TokenService {
	return &TokenService{cfg: cfg, resolver: resolver}
}

// IssueAccessToken resolves the user's claims now and embeds them in a signed
// short-lived token. The embedded claims are a snapshot: privilege changes
// after issuance only take effect on the next login or refresh.
func (s *TokenService) IssueAccessToken(ctx context.Context, userID uint64, fresh bool) (string, error) {
	set, err := s.resolver.ResolveClaims(ctx, userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := &Claims{
		UserID:          userID,
		TokenType:       TokenTypeAccess,
		Fresh:           fresh,
		IsEmailVerified: set.IsEmailVerified,
		IsAdmin:         set.IsAdmin,
		IsSuperAdmin:    set.IsSuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatUint(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

func (s *TokenService) IssueRefreshToken(userID uint64) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID:    userID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatUint(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

func (s *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString, TokenTypeAccess)
}

func (s *TokenService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString, TokenTypeRefresh)
}

func (s *TokenService) parse(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
