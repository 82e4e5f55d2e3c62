package auth

import (
	"context"

	"github.com/lzhlsy00/video-gen/internal/client"
)

// UserFetcher resolves an access token through the identity service.
type UserFetcher interface {
	GetUser(ctx context.Context, accessToken string) (*client.SupabaseUser, error)
}

// RemoteVerifier asks the hosted auth API who a token belongs to. It accepts
// tokens whose signing key this service does not hold.
type RemoteVerifier struct {
	users UserFetcher
}

func NewRemoteVerifier(users UserFetcher) *RemoteVerifier {
	return &RemoteVerifier{users: users}
}

func (v *RemoteVerifier) Name() string { return "remote" }

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	user, err := v.users.GetUser(ctx, token)
	if err != nil {
		return Anonymous, err
	}
	return Identity{UserID: user.ID, Email: user.Email}, nil
}
