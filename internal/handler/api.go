package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/domain"
	"github.com/BlackMission/graphprofile/internal/view"
)

type meResponse struct {
	Status   string                `json:"status"`
	Profile  *domain.ProfileRecord `json:"profile,omitempty"`
	PhotoURL string                `json:"photoUrl"`
}

// APIMe handles GET /api/me.
// It returns the same state the profile page renders, or 401 when the caller
// has to sign in first.
func APIMe(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := d.Sessions.Lookup(r, d.Cookies)
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.ErrNoActiveAccount.Error())
			return
		}

		client, err := sess.Client(r.Context(), d.Auth)
		if err != nil {
			d.logger(r).Error("bootstrapping auth client", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "sign-in unavailable")
			return
		}
		if _, ok := client.ActiveAccount(); !ok {
			writeError(w, http.StatusUnauthorized, domain.ErrNoActiveAccount.Error())
			return
		}

		st := d.Loader.Load(r.Context(), sess.ID, client, sess)
		if st.Status == view.StatusInteracting {
			writeError(w, http.StatusUnauthorized, domain.ErrInteractionRequired.Error())
			return
		}

		resp := meResponse{Status: st.Status.String(), Profile: st.Profile, PhotoURL: DefaultImage}
		if st.Photo != "" {
			resp.PhotoURL = string(st.Photo)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
