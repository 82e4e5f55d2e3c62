package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the Supabase access-token claims this service reads
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) identity() (Identity, error) {
	if c.Subject == "" {
		return Anonymous, errors.New("token has no subject")
	}
	return Identity{UserID: c.Subject, Email: c.Email}, nil
}

// JWKSVerifier validates asymmetric tokens against the project's JWKS
type JWKSVerifier struct {
	jwks     keyfunc.Keyfunc
	audience string
}

// NewJWKSVerifier fetches the key set at jwksURL and keeps it refreshed.
func NewJWKSVerifier(ctx context.Context, jwksURL, audience string) (*JWKSVerifier, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS keyfunc: %w", err)
	}
	return &JWKSVerifier{jwks: jwks, audience: audience}, nil
}

func (v *JWKSVerifier) Name() string { return "jwks" }

func (v *JWKSVerifier) Verify(_ context.Context, token string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, v.jwks.Keyfunc, opts...)
	if err != nil {
		return Anonymous, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Anonymous, jwt.ErrTokenInvalidClaims
	}
	return claims.identity()
}

// HMACVerifier validates tokens signed with the project's shared JWT secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Name() string { return "hmac" }

func (v *HMACVerifier) Verify(_ context.Context, token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Anonymous, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Anonymous, jwt.ErrTokenInvalidClaims
	}
	return claims.identity()
}

// SignHMAC issues a token the HMACVerifier accepts. Used by tests and local tooling.
func SignHMAC(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
