package auth

import (
	"context"
	"sync"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
)

// fakePublicClient records calls and returns canned results.
type fakePublicClient struct {
	mu sync.Mutex

	accounts    []public.Account
	accountsErr error

	silentResult public.AuthResult
	silentErr    error
	silentCalls  int
	silentScopes []string

	authCodeURL    string
	authCodeURLErr error
	lastRedirect   string

	codeResult public.AuthResult
	codeErr    error
	lastCode   string

	removed   []public.Account
	removeErr error
}

func (f *fakePublicClient) Accounts(ctx context.Context) ([]public.Account, error) {
	return f.accounts, f.accountsErr
}

func (f *fakePublicClient) RemoveAccount(ctx context.Context, account public.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, account)
	return f.removeErr
}

func (f *fakePublicClient) AuthCodeURL(ctx context.Context, clientID, redirectURI string, scopes []string, opts ...public.AuthCodeURLOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRedirect = redirectURI
	return f.authCodeURL, f.authCodeURLErr
}

func (f *fakePublicClient) AcquireTokenSilent(ctx context.Context, scopes []string, opts ...public.AcquireSilentOption) (public.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silentCalls++
	f.silentScopes = scopes
	return f.silentResult, f.silentErr
}

func (f *fakePublicClient) AcquireTokenByAuthCode(ctx context.Context, code, redirectURI string, scopes []string, opts ...public.AcquireByAuthCodeOption) (public.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCode = code
	f.lastRedirect = redirectURI
	return f.codeResult, f.codeErr
}

type memoryStore struct {
	data []byte
}

func (m *memoryStore) LoadCache() ([]byte, error) { return m.data, nil }
func (m *memoryStore) SaveCache(data []byte) error {
	m.data = data
	return nil
}

func newTestFactory(fake *fakePublicClient, callbacks ...EventCallback) *Factory {
	f := NewFactory(Config{}, nil, callbacks...)
	f.newPublic = func(Config, CacheStore) (PublicClient, error) { return fake, nil }
	return f
}
