package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/auth"
)

// Logout handles POST /logout.
// It drops the active account from the token cache, destroys the session and
// sends the browser to the provider's end-session endpoint.
func Logout(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postLogout := auth.RedirectURIFor(r, "/")

		sess, err := d.Sessions.Lookup(r, d.Cookies)
		if err != nil {
			d.Cookies.Clear(w)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		client, err := sess.Client(r.Context(), d.Auth)
		if err != nil {
			d.unavailable(w, r, err)
			return
		}

		// Built before Logout so the hint still names the departing account.
		logoutURL := client.LogoutURL(postLogout)
		if err := client.Logout(r.Context()); err != nil {
			d.logger(r).Warn("removing account", zap.Error(err))
		}
		d.Sessions.Delete(sess.ID)
		d.Cookies.Clear(w)

		http.Redirect(w, r, logoutURL, http.StatusSeeOther)
	}
}
