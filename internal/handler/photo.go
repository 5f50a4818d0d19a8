package handler

import (
	"net/http"
	"strconv"
)

// Photo handles GET /photo/{ref}.
func Photo(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := d.Sessions.Lookup(r, d.Cookies)
		if err != nil {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}

		p, err := sess.Photo(r.PathValue("ref"))
		if err != nil {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}

		w.Header().Set("Content-Type", p.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
		w.Header().Set("Cache-Control", "private, max-age=3600")
		_, _ = w.Write(p.Data)
	}
}
