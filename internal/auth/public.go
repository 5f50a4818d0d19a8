package auth

import (
	"context"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
)

// PublicClient looks like a subset of the public.Client surface area, to aid testing.
type PublicClient interface {
	Accounts(ctx context.Context) ([]public.Account, error)
	RemoveAccount(ctx context.Context, account public.Account) error
	AuthCodeURL(ctx context.Context, clientID, redirectURI string, scopes []string, opts ...public.AuthCodeURLOption) (string, error)
	AcquireTokenSilent(ctx context.Context, scopes []string, opts ...public.AcquireSilentOption) (public.AuthResult, error)
	AcquireTokenByAuthCode(ctx context.Context, code, redirectURI string, scopes []string, opts ...public.AcquireByAuthCodeOption) (public.AuthResult, error)
}

var _ PublicClient = public.Client{}
