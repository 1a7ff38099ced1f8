package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const AdminIDKey = contextKey("adminID")
const RequestIDKey = contextKey("requestID")

var ErrInvalidToken = errors.New("invalid token")

// TokenConfig signs and checks admin access tokens (HS256).
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// GenerateAccessToken issues an access token for the given admin.
func (c TokenConfig) GenerateAccessToken(id uint, username, role string) (string, error) {
	if c.Secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	now := time.Now()
	jti, err := generateJTI(32)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"id":       id,
		"username": username,
		"role":     role,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      jti,
	}
	if c.Issuer != "" {
		claims["iss"] = c.Issuer
	}
	if c.Audience != "" {
		claims["aud"] = c.Audience
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.Secret))
}

// ValidateAccessToken parses tokenStr and checks signature, expiry and,
// when configured, issuer and audience.
func (c TokenConfig) ValidateAccessToken(tokenStr string) (jwt.MapClaims, error) {
	if c.Secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	opts := []jwt.ParserOption{
		// Require exact HS256 algorithm to avoid algorithm confusion.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}
	if c.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.Audience))
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(c.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ClaimID extracts the numeric "id" claim.
func ClaimID(claims jwt.MapClaims) (uint, error) {
	switch v := claims["id"].(type) {
	case float64:
		if v <= 0 {
			return 0, ErrInvalidToken
		}
		return uint(v), nil
	default:
		return 0, ErrInvalidToken
	}
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return tok, tok != ""
}

// GetAdminID returns the admin id injected by the admin middleware.
func GetAdminID(r *http.Request) (uint, bool) {
	id, ok := r.Context().Value(AdminIDKey).(uint)
	return id, ok
}

// WithAdminID stores id on ctx.
func WithAdminID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, AdminIDKey, id)
}

// GetRequestID returns the id set by the request id middleware.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// generateJTI creates a URL-safe random identifier used as JWT ID
func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = hex[int(b[i])%len(hex)]
	}
	return string(out), nil
}
