// Package auth turns a caller's Authorization header into an Identity.
// Every route goes through the same Resolver; routes decide for themselves
// whether Anonymous is acceptable.
package auth

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Identity is a resolved caller. The zero value is Anonymous.
type Identity struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	// Source names the verifier that accepted the credential.
	Source string `json:"-"`
}

// Anonymous is the identity of callers without a usable credential.
var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// DisplayName is the owner key the backend indexes videos by: the email when
// known, the user id otherwise.
func (i Identity) DisplayName() string {
	if i.Email != "" {
		return i.Email
	}
	return i.UserID
}

// Verifier checks one kind of credential.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, token string) (Identity, error)
}

// Resolver tries each verifier in order and keeps the first identity that
// verifies.
type Resolver struct {
	verifiers []Verifier
	log       zerolog.Logger
}

func NewResolver(log zerolog.Logger, verifiers ...Verifier) *Resolver {
	return &Resolver{verifiers: verifiers, log: log.With().Str("component", "auth").Logger()}
}

// Resolve never fails: a missing, malformed or rejected credential yields
// Anonymous.
func (r *Resolver) Resolve(ctx context.Context, authHeader string) Identity {
	token, ok := BearerToken(authHeader)
	if !ok {
		return Anonymous
	}

	for _, v := range r.verifiers {
		id, err := v.Verify(ctx, token)
		if err == nil && !id.IsAnonymous() {
			id.Source = v.Name()
			return id
		}
		r.log.Debug().Err(err).Str("verifier", v.Name()).Msg("credential rejected")
	}
	return Anonymous
}

// BearerToken extracts the token from an "Authorization: Bearer ..." value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
