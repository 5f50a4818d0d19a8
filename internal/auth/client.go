package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/domain"
)

// Client is one browser session's view of the identity provider. It tracks the
// active account and hands out tokens for it; token caching and refresh stay
// inside MSAL.
type Client struct {
	pc        PublicClient
	clientID  string
	authority string
	scopes    []string
	logger    *zap.Logger

	mu        sync.RWMutex
	active    *public.Account
	callbacks []EventCallback
}

// Scopes returns the scopes requested for every token.
func (c *Client) Scopes() []string {
	return append([]string(nil), c.scopes...)
}

// ActiveAccount returns the account used for token requests, if one is set.
func (c *Client) ActiveAccount() (public.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return public.Account{}, false
	}
	return *c.active, true
}

// SetActiveAccount makes account the one used for subsequent token requests.
func (c *Client) SetActiveAccount(account public.Account) {
	c.mu.Lock()
	c.active = &account
	c.mu.Unlock()
}

func (c *Client) clearActiveAccount() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

// AllAccounts lists the accounts present in the token cache.
func (c *Client) AllAccounts(ctx context.Context) ([]public.Account, error) {
	accounts, err := c.pc.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cached accounts: %w", err)
	}
	return accounts, nil
}

// AddEventCallback registers cb for all future events on this client.
func (c *Client) AddEventCallback(cb EventCallback) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
}

func (c *Client) emit(ev Event) {
	c.mu.RLock()
	callbacks := append([]EventCallback(nil), c.callbacks...)
	c.mu.RUnlock()
	for _, cb := range callbacks {
		cb(ev)
	}
}

// AcquireToken silently obtains an access token for the active account.
// It returns domain.ErrNoActiveAccount when nobody is signed in and an error
// wrapping domain.ErrInteractionRequired when the user must log in again.
func (c *Client) AcquireToken(ctx context.Context) (string, error) {
	account, ok := c.ActiveAccount()
	if !ok {
		return "", domain.ErrNoActiveAccount
	}

	res, err := c.pc.AcquireTokenSilent(ctx, c.scopes, public.WithSilentAccount(account))
	if err != nil {
		err = classify(err)
		c.emit(Event{Type: EventAcquireTokenFailure, Account: &account, Err: err})
		return "", fmt.Errorf("acquiring token silently: %w", err)
	}

	c.emit(Event{Type: EventAcquireTokenSuccess, Account: &account})
	return res.AccessToken, nil
}

// LoginURL builds the interactive authorization URL carrying state.
func (c *Client) LoginURL(ctx context.Context, redirectURI, state string) (string, error) {
	var opts []public.AuthCodeURLOption
	if account, ok := c.ActiveAccount(); ok && account.PreferredUsername != "" {
		opts = append(opts, public.WithLoginHint(account.PreferredUsername))
	}

	raw, err := c.pc.AuthCodeURL(ctx, c.clientID, redirectURI, c.scopes, opts...)
	if err != nil {
		return "", fmt.Errorf("building auth code URL: %w", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing auth code URL: %w", err)
	}
	q := u.Query()
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HandleRedirect redeems the authorization code returned to redirectURI and
// emits EventLoginSuccess or EventLoginFailure.
func (c *Client) HandleRedirect(ctx context.Context, code, redirectURI string) (public.AuthResult, error) {
	if code == "" {
		c.emit(Event{Type: EventLoginFailure, Err: domain.ErrMissingAuthCode})
		return public.AuthResult{}, domain.ErrMissingAuthCode
	}

	res, err := c.pc.AcquireTokenByAuthCode(ctx, code, redirectURI, c.scopes)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrLoginFailed, err)
		c.emit(Event{Type: EventLoginFailure, Err: err})
		return public.AuthResult{}, err
	}

	account := res.Account
	c.logger.Debug("login redeemed", zap.String("home_account_id", account.HomeAccountID))
	c.emit(Event{Type: EventLoginSuccess, Account: &account})
	return res, nil
}

// RejectRedirect records a redirect that came back with an error instead of a
// code and returns it wrapped in domain.ErrLoginFailed.
func (c *Client) RejectRedirect(code, description string) error {
	err := fmt.Errorf("%w: %s", domain.ErrLoginFailed, code)
	if description != "" {
		err = fmt.Errorf("%w: %s: %s", domain.ErrLoginFailed, code, description)
	}
	c.emit(Event{Type: EventLoginFailure, Err: err})
	return err
}

// LogoutURL returns the provider's end-session URL that comes back to postLogoutRedirectURI.
func (c *Client) LogoutURL(postLogoutRedirectURI string) string {
	params := url.Values{}
	if postLogoutRedirectURI != "" {
		params.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}
	if account, ok := c.ActiveAccount(); ok && account.PreferredUsername != "" {
		params.Set("logout_hint", account.PreferredUsername)
	}
	endpoint := strings.TrimRight(c.authority, "/") + "/oauth2/v2.0/logout"
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

// Logout forgets the active account and drops its tokens from the cache.
func (c *Client) Logout(ctx context.Context) error {
	account, ok := c.ActiveAccount()
	if !ok {
		return nil
	}
	err := c.pc.RemoveAccount(ctx, account)
	c.clearActiveAccount()
	if err != nil {
		return fmt.Errorf("removing account from token cache: %w", err)
	}
	c.emit(Event{Type: EventLogoutSuccess, Account: &account})
	return nil
}
