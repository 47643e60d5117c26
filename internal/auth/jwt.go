package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrNoSecret     = errors.New("JWT secret not configured")
)

const tokenIssuer = "bookwell"

const opsSubject = "ops"

// TokenClaims represents the claims in an access token. Tenant tokens carry a
// tenant id; operator tokens carry Ops and no tenant.
type TokenClaims struct {
	TenantID string `json:"tenant_id,omitempty"`
	Ops      bool   `json:"ops,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed token scoped to tenantID
func GenerateToken(tenantID, secret string, expiry time.Duration) (string, error) {
	if tenantID == "" {
		return "", errors.New("tenant id is required")
	}
	return signToken(TokenClaims{TenantID: tenantID}, tenantID, secret, expiry)
}

// GenerateOpsToken creates a signed operator token for cross-tenant maintenance
// endpoints
func GenerateOpsToken(secret string, expiry time.Duration) (string, error) {
	return signToken(TokenClaims{Ops: true}, opsSubject, secret, expiry)
}

func signToken(claims TokenClaims, subject, secret string, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// ValidateToken validates and parses a tenant or operator token
func ValidateToken(tokenString, secret string) (*TokenClaims, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	// exactly one of tenant scope or operator scope
	if claims.Ops == (claims.TenantID != "") {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
