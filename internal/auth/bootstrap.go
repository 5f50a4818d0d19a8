package auth

import (
	"context"
	"fmt"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"go.uber.org/zap"
)

const (
	// DefaultClientID is the application registration used when none is configured.
	DefaultClientID = "69d4c8a4-52c4-478f-9361-b7860e8c7018"
	// DefaultAuthority is the tenant authority used when none is configured.
	DefaultAuthority = "https://login.microsoftonline.com/7d13004c-123c-4064-9291-3ebefd2822df"
	// ScopeUserRead lets the app read the signed-in user's profile and photo.
	ScopeUserRead = "User.Read"
)

// Config holds the application registration used to build clients.
type Config struct {
	ClientID  string
	Authority string
	Scopes    []string
}

// Builder constructs the MSAL client backing a session.
type Builder func(cfg Config, store CacheStore) (PublicClient, error)

// Factory bootstraps one Client per browser session.
type Factory struct {
	cfg       Config
	logger    *zap.Logger
	callbacks []EventCallback
	newPublic Builder
}

// NewFactory creates a Factory. callbacks are installed on every client it bootstraps,
// after the built-in login handler.
func NewFactory(cfg Config, logger *zap.Logger, callbacks ...EventCallback) *Factory {
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Authority == "" {
		cfg.Authority = DefaultAuthority
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{ScopeUserRead}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		cfg:       cfg,
		logger:    logger,
		callbacks: callbacks,
		newPublic: newMSALClient,
	}
}

func newMSALClient(cfg Config, store CacheStore) (PublicClient, error) {
	pca, err := public.New(cfg.ClientID,
		public.WithAuthority(cfg.Authority),
		public.WithCache(&msalCacheAdapter{store: store}),
	)
	if err != nil {
		return nil, err
	}
	return pca, nil
}

// SetBuilder replaces the MSAL client constructor (for testing).
func (f *Factory) SetBuilder(b Builder) {
	f.newPublic = b
}

// Config returns the registration the factory builds clients with.
func (f *Factory) Config() Config {
	return f.cfg
}

// Bootstrap builds a client whose token cache lives in store. The first cached
// account, if any, becomes active, and a successful login promotes the new
// account to active.
func (f *Factory) Bootstrap(ctx context.Context, store CacheStore) (*Client, error) {
	pc, err := f.newPublic(f.cfg, store)
	if err != nil {
		return nil, fmt.Errorf("creating msal client: %w", err)
	}

	c := &Client{
		pc:        pc,
		clientID:  f.cfg.ClientID,
		authority: f.cfg.Authority,
		scopes:    append([]string(nil), f.cfg.Scopes...),
		logger:    f.logger,
	}

	accounts, err := c.AllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		c.SetActiveAccount(accounts[0])
		f.logger.Debug("restored cached account", zap.String("home_account_id", accounts[0].HomeAccountID))
	}

	c.AddEventCallback(func(ev Event) {
		if ev.Type == EventLoginSuccess && ev.Account != nil {
			c.SetActiveAccount(*ev.Account)
		}
	})
	for _, cb := range f.callbacks {
		c.AddEventCallback(cb)
	}

	return c, nil
}
