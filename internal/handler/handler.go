package handler

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/cookie"
	"github.com/BlackMission/graphprofile/internal/logging"
	"github.com/BlackMission/graphprofile/internal/session"
	"github.com/BlackMission/graphprofile/internal/state"
	"github.com/BlackMission/graphprofile/internal/view"
)

// Deps holds what the page and API handlers share.
type Deps struct {
	Sessions *session.Store
	Cookies  *cookie.Codec
	State    *state.Service
	Auth     *auth.Factory
	Loader   *view.Loader
	Logger   *zap.Logger
}

func (d Deps) logger(r *http.Request) *zap.Logger {
	return logging.FromContext(r.Context(), d.Logger)
}

// sessionClient returns the caller's session, creating it if needed, together
// with its bootstrapped auth client.
func (d Deps) sessionClient(w http.ResponseWriter, r *http.Request) (*session.Session, *auth.Client, error) {
	sess, err := d.Sessions.Resolve(w, r, d.Cookies)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving session: %w", err)
	}
	client, err := sess.Client(r.Context(), d.Auth)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrapping auth client: %w", err)
	}
	return sess, client, nil
}

func (d Deps) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	d.logger(r).Error("sign-in unavailable", zap.Error(err))
	renderError(w, http.StatusInternalServerError, "Sign-in unavailable",
		"The application could not reach its identity configuration. Try again later.")
}

// safeReturnPath keeps redirects on this origin.
func safeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
