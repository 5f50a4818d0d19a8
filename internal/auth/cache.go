package auth

import (
	"context"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
)

// CacheStore persists the serialized MSAL token cache for one session.
// LoadCache returns nil data when nothing has been stored yet.
type CacheStore interface {
	LoadCache() ([]byte, error)
	SaveCache(data []byte) error
}

// msalCacheAdapter adapts a CacheStore to the one expected by cache.ExportReplace.
//
// The partition key in the hints is ignored: every store belongs to a single
// browser session, so the whole contract is kept under one entry.
type msalCacheAdapter struct {
	store CacheStore
}

func (a *msalCacheAdapter) Replace(ctx context.Context, c cache.Unmarshaler, _ cache.ReplaceHints) error {
	data, err := a.store.LoadCache()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return c.Unmarshal(data)
}

func (a *msalCacheAdapter) Export(ctx context.Context, c cache.Marshaler, _ cache.ExportHints) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return a.store.SaveCache(data)
}
