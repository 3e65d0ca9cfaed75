package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/cache"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// TokenPurpose separates access tokens from password reset tokens.
type TokenPurpose string

const (
	PurposeAccess        TokenPurpose = "access"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string       `json:"id"`
	Role    model.Role   `json:"role,omitempty"`
	Purpose TokenPurpose `json:"purpose"`
	// Stamp binds a reset token to the password hash it was issued against,
	// so the token stops working once the password changes.
	Stamp string `json:"stamp,omitempty"`
	Email string `json:"email,omitempty"`
}

// AuthService handles password hashing, JWT issuance and user resolution.
type AuthService struct {
	cfg   *config.Config
	users UserStore
	cache cache.Store
	log   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore, store cache.Store, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:   cfg,
		users: users,
		cache: store,
		log:   log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken issues an access token carrying the user id and role.
func (s *AuthService) GenerateToken(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID:  u.ID.String(),
		Role:    u.Role,
		Purpose: PurposeAccess,
	}
	return s.sign(claims)
}

// ValidateToken verifies an access token. It returns ErrTokenExpired for a
// well-signed token past its expiry and ErrTokenInvalid for anything else.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeAccess {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ResolveUser loads the user for an id, reading through the cache. The
// returned user never carries the password hash.
func (s *AuthService) ResolveUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := config.CacheKey.UserKey(id.String())

	var cached model.User
	if cacheGet(ctx, s.cache, s.log, key, &cached) {
		return &cached, nil
	}

	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.PasswordHash = ""
	cacheSet(ctx, s.cache, s.log, key, u)
	return u, nil
}

// Authenticate validates an access token and resolves its user.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*model.User, error) {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return s.ResolveUser(ctx, id)
}

// GenerateResetToken issues a short-lived password reset token for u. u must
// carry its password hash.
func (s *AuthService) GenerateResetToken(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.ResetTokenExpiry)),
		},
		UserID:  u.ID.String(),
		Purpose: PurposePasswordReset,
		Stamp:   passwordStamp(u.PasswordHash),
		Email:   u.Email,
	}
	return s.sign(claims)
}

// ParseResetToken verifies a reset token and returns its claims. Callers
// must still compare the stamp against the current hash with StampMatches.
func (s *AuthService) ParseResetToken(tokenStr string) (*Claims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil || claims.Purpose != PurposePasswordReset {
		return nil, ErrResetTokenInvalid
	}
	return claims, nil
}

// StampMatches reports whether a reset token was issued against hash.
func (c *Claims) StampMatches(hash string) bool {
	return c.Stamp != "" && c.Stamp == passwordStamp(hash)
}

func (s *AuthService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func passwordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
