package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/domain"
	"github.com/BlackMission/graphprofile/internal/session"
	"github.com/BlackMission/graphprofile/internal/view"
)

// Home handles GET /.
// It completes a sign-in when the identity provider redirects back, starts one
// when nobody is signed in or interaction is required, and otherwise renders
// the profile page.
func Home(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, client, err := d.sessionClient(w, r)
		if err != nil {
			d.unavailable(w, r, err)
			return
		}

		q := r.URL.Query()
		if code := q.Get("error"); code != "" {
			err := client.RejectRedirect(code, q.Get("error_description"))
			d.logger(r).Warn("sign-in rejected by identity provider", zap.Error(err))
			message := q.Get("error_description")
			if message == "" {
				message = code
			}
			renderError(w, http.StatusBadRequest, "Sign-in failed", message)
			return
		}
		if q.Has("code") || q.Has("state") {
			d.completeLogin(w, r, sess, client)
			return
		}

		if _, ok := client.ActiveAccount(); !ok {
			d.beginLogin(w, r, sess, client, r.URL.RequestURI())
			return
		}

		st := d.Loader.Load(r.Context(), sess.ID, client, sess)
		if st.Status == view.StatusInteracting {
			d.beginLogin(w, r, sess, client, r.URL.RequestURI())
			return
		}

		page := profilePage{ImageURL: DefaultImage}
		if st.Profile != nil {
			page.DisplayName = st.Profile.DisplayName
		}
		if st.Photo != "" {
			page.ImageURL = string(st.Photo)
		}
		renderHTML(w, http.StatusOK, "profile.html", page)
	}
}

func (d Deps) completeLogin(w http.ResponseWriter, r *http.Request, sess *session.Session, client *auth.Client) {
	q := r.URL.Query()

	payload, err := d.State.ValidateForSession(q.Get("state"), sess.ID)
	if err != nil {
		d.logger(r).Warn("rejecting sign-in redirect", zap.Error(err))
		renderError(w, http.StatusBadRequest, "Sign-in failed",
			"The sign-in request is invalid or has expired.")
		return
	}

	if _, err := client.HandleRedirect(r.Context(), q.Get("code"), auth.RedirectURI(r)); err != nil {
		d.logger(r).Warn("redeeming authorization code", zap.Error(err))
		if errors.Is(err, domain.ErrMissingAuthCode) {
			renderError(w, http.StatusBadRequest, "Sign-in failed", "The identity provider did not return a code.")
			return
		}
		renderError(w, http.StatusBadGateway, "Sign-in failed", "The identity provider rejected the sign-in.")
		return
	}

	http.Redirect(w, r, safeReturnPath(payload.ReturnPath), http.StatusFound)
}
