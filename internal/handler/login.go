package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/domain"
	"github.com/BlackMission/graphprofile/internal/session"
)

// Login handles GET /login.
// It redirects to the identity provider; the return parameter names the local
// path to come back to once the code has been redeemed.
func Login(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, client, err := d.sessionClient(w, r)
		if err != nil {
			d.unavailable(w, r, err)
			return
		}
		d.beginLogin(w, r, sess, client, r.URL.Query().Get("return"))
	}
}

func (d Deps) beginLogin(w http.ResponseWriter, r *http.Request, sess *session.Session, client *auth.Client, returnPath string) {
	token, err := d.State.Generate(domain.StatePayload{
		SessionID:  sess.ID,
		ReturnPath: safeReturnPath(returnPath),
	})
	if err != nil {
		d.logger(r).Error("generating state token", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Sign-in unavailable", "Could not start sign-in.")
		return
	}

	loginURL, err := client.LoginURL(r.Context(), auth.RedirectURIFor(r, "/"), token)
	if err != nil {
		d.logger(r).Error("building login URL", zap.Error(err))
		renderError(w, http.StatusBadGateway, "Sign-in unavailable", "Could not reach the identity provider.")
		return
	}

	http.Redirect(w, r, loginURL, http.StatusFound)
}
