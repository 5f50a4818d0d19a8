package testutil

import (
	"context"
	"sync"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
)

// FakeMSAL stands in for an MSAL public client. Configure it before use and
// read the recorded calls through its methods.
type FakeMSAL struct {
	mu sync.Mutex

	CachedAccounts []public.Account
	AuthURL        string
	SilentResult   public.AuthResult
	SilentErr      error
	CodeResult     public.AuthResult
	CodeErr        error

	silentCalls  int
	lastCode     string
	lastRedirect string
	removed      []public.Account
}

// Accounts returns the cached accounts.
func (f *FakeMSAL) Accounts(ctx context.Context) ([]public.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]public.Account(nil), f.CachedAccounts...), nil
}

// RemoveAccount drops account from the cache.
func (f *FakeMSAL) RemoveAccount(ctx context.Context, account public.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, account)
	kept := f.CachedAccounts[:0]
	for _, a := range f.CachedAccounts {
		if a.HomeAccountID != account.HomeAccountID {
			kept = append(kept, a)
		}
	}
	f.CachedAccounts = kept
	return nil
}

// AuthCodeURL returns AuthURL.
func (f *FakeMSAL) AuthCodeURL(ctx context.Context, clientID, redirectURI string, scopes []string, opts ...public.AuthCodeURLOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRedirect = redirectURI
	return f.AuthURL, nil
}

// AcquireTokenSilent returns SilentResult or SilentErr.
func (f *FakeMSAL) AcquireTokenSilent(ctx context.Context, scopes []string, opts ...public.AcquireSilentOption) (public.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silentCalls++
	return f.SilentResult, f.SilentErr
}

// AcquireTokenByAuthCode returns CodeResult or CodeErr. On success the result's
// account is added to the cache.
func (f *FakeMSAL) AcquireTokenByAuthCode(ctx context.Context, code, redirectURI string, scopes []string, opts ...public.AcquireByAuthCodeOption) (public.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCode = code
	f.lastRedirect = redirectURI
	if f.CodeErr != nil {
		return public.AuthResult{}, f.CodeErr
	}
	f.CachedAccounts = append(f.CachedAccounts, f.CodeResult.Account)
	return f.CodeResult, nil
}

// SilentCalls reports how many silent acquisitions were attempted.
func (f *FakeMSAL) SilentCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.silentCalls
}

// LastCode returns the last authorization code redeemed.
func (f *FakeMSAL) LastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCode
}

// LastRedirect returns the redirect URI of the last auth code call.
func (f *FakeMSAL) LastRedirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRedirect
}

// Removed returns the accounts passed to RemoveAccount.
func (f *FakeMSAL) Removed() []public.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]public.Account(nil), f.removed...)
}
