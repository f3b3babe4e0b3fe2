package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Internal causes behind a public "invalid credentials" failure.
// Logged, never surfaced: the response must not reveal whether the
// account exists.
var (
	errUnknownAccount = errors.New("account not found")
	errBadPassword    = errors.New("password mismatch")
)

type AuthService interface {
	LoginUser(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(ctx context.Context, user *models.User) (access, refresh string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (access, refresh string, expiresIn int64, err error)
	RevokeToken(ctx context.Context, refreshToken string) error
}

type AuthServiceImpl struct {
	store     repositories.Store
	secret    string
	accessTTL time.Duration
}

func NewAuthService(store repositories.Store, secret string, accessTTL time.Duration) *AuthServiceImpl {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &AuthServiceImpl{store: store, secret: secret, accessTTL: accessTTL}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.Users().FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.KindForbidden, "invalid credentials", errUnknownAccount)
		}
		return nil, err
	}
	if !VerifyPassword(user.Password, password) {
		return nil, apperrors.Wrap(apperrors.KindForbidden, "invalid credentials", errBadPassword)
	}
	return user, nil
}

func (s *AuthServiceImpl) GenerateToken(ctx context.Context, user *models.User) (string, string, error) {
	now := time.Now()

	accessTokenClaims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessTTL).Unix(),
		"iss":     "team-tasks-backend",
		"aud":     "team-tasks-users",
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.secret))
	if err != nil {
		return "", "", apperrors.Infrastructure(fmt.Errorf("failed to sign access token: %w", err))
	}

	jti, err := uuid.NewV4()
	if err != nil {
		return "", "", apperrors.Infrastructure(fmt.Errorf("failed to generate jti: %w", err))
	}

	refreshTokenExpiry := now.Add(24 * time.Hour)
	refreshTokenClaims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"type":    "refresh",
		"jti":     jti.String(),
		"iat":     now.Unix(),
		"exp":     refreshTokenExpiry.Unix(),
		"iss":     "team-tasks-backend",
		"aud":     "team-tasks-users",
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshTokenClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.secret))
	if err != nil {
		return "", "", apperrors.Infrastructure(fmt.Errorf("failed to sign refresh token: %w", err))
	}

	tokenRecord := &models.Token{
		ID:           uuid.Must(uuid.NewV4()),
		UserID:       user.ID,
		JTI:          jti,
		RefreshToken: refreshTokenString,
		ExpiresAt:    refreshTokenExpiry,
	}
	if err := s.store.Tokens().Create(ctx, tokenRecord); err != nil {
		return "", "", err
	}

	return accessTokenString, refreshTokenString, nil
}

func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (string, string, int64, error) {
	jti, userID, err := s.parseRefreshToken(refreshToken)
	if err != nil {
		return "", "", 0, err
	}

	dbToken, err := s.store.Tokens().FindByJTI(ctx, jti)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", "", 0, apperrors.InvalidToken("refresh token not found or expired")
		}
		return "", "", 0, err
	}
	if dbToken.UserID != userID {
		return "", "", 0, apperrors.InvalidToken("refresh token not found or expired")
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", "", 0, apperrors.InvalidToken("refresh token not found or expired")
		}
		return "", "", 0, err
	}

	access, refresh, err := s.GenerateToken(ctx, user)
	if err != nil {
		return "", "", 0, err
	}

	// Rotation: the old token dies with the new one issued.
	if err := s.store.Tokens().DeleteByJTI(ctx, jti); err != nil {
		return "", "", 0, err
	}

	return access, refresh, int64(s.accessTTL.Seconds()), nil
}

func (s *AuthServiceImpl) RevokeToken(ctx context.Context, refreshToken string) error {
	jti, _, err := s.parseRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	return s.store.Tokens().DeleteByJTI(ctx, jti)
}

func (s *AuthServiceImpl) parseRefreshToken(refreshToken string) (jti, userID uuid.UUID, err error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.InvalidToken("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, uuid.Nil, apperrors.InvalidToken("invalid refresh token claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		return uuid.Nil, uuid.Nil, apperrors.InvalidToken("invalid token type")
	}

	jtiStr, ok := claims["jti"].(string)
	if !ok {
		return uuid.Nil, uuid.Nil, apperrors.InvalidToken("missing jti in token")
	}
	jti, err = uuid.FromString(jtiStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.InvalidToken("invalid jti format")
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, uuid.Nil, apperrors.InvalidToken("missing user_id in token")
	}
	userID, err = uuid.FromString(userIDStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.InvalidToken("invalid user_id format")
	}

	return jti, userID, nil
}
