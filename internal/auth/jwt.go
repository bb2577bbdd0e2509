package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carried by ChoirOS bearer tokens. Roles are per organization and
// are looked up on each request, so only the identity is signed.
type Claims struct {
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
	IsSuperadmin bool   `json:"is_superadmin,omitempty"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	leeway   time.Duration
	nowFunc  func() time.Time
}

func NewJWTManager(secret, issuer string, expirationHours int, leeway time.Duration) *JWTManager {
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &JWTManager{
		secret:   []byte(secret),
		issuer:   issuer,
		lifetime: time.Duration(expirationHours) * time.Hour,
		leeway:   leeway,
		nowFunc:  time.Now,
	}
}

// GenerateToken signs a token for the user and returns it with its expiry.
func (j *JWTManager) GenerateToken(userID int64, email string, superadmin bool) (string, time.Time, error) {
	now := j.nowFunc()
	expiresAt := now.Add(j.lifetime)
	claims := Claims{
		UserID:       userID,
		Email:        email,
		IsSuperadmin: superadmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token string.
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(j.nowFunc),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
