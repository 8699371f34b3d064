package services

import (
	"errors"
	"fmt"
	"time"

	"plugshop/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "plugshop-auth"
	tokenAudience = "plugshop-admin"
)

var ErrNotStaff = errors.New("user is not staff")

// StaffClaims are carried by admin API tokens.
type StaffClaims struct {
	Username string `json:"username"`
	Staff    bool   `json:"staff"`
	jwt.RegisteredClaims
}

type TokenService interface {
	Issue(user *models.User) (*models.TokenResponse, error)
	Parse(token string) (*StaffClaims, error)
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{secret: []byte(secret), ttl: ttl}
}

func (s *tokenService) Issue(user *models.User) (*models.TokenResponse, error) {
	if !user.IsStaff {
		return nil, ErrNotStaff
	}

	now := time.Now()
	tokenID := uuid.NewString()
	claims := StaffClaims{
		Username: user.Username,
		Staff:    user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		UserID:      user.ID.String(),
		Username:    user.Username,
		TokenID:     tokenID,
		IssuedAt:    now,
	}, nil
}

func (s *tokenService) Parse(token string) (*StaffClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &StaffClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := parsed.Claims.(*StaffClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
