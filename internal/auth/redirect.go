package auth

import (
	"net"
	"net/http"
	"strings"
)

// RedirectURI computes the redirect target for the page being served:
// <scheme>://<host>[:<port>]<path>. The port is only kept for localhost, where
// development servers listen on arbitrary ports.
func RedirectURI(r *http.Request) string {
	return RedirectURIFor(r, r.URL.Path)
}

// RedirectURIFor is RedirectURI for another path on the same origin.
func RedirectURIFor(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		// Anything but a plain scheme is ignored.
		switch p := strings.ToLower(strings.TrimSpace(first)); p {
		case "http", "https":
			scheme = p
		}
	}

	hostname, port := strings.Trim(r.Host, "[]"), ""
	if h, p, err := net.SplitHostPort(r.Host); err == nil {
		hostname, port = h, p
	}
	if strings.Contains(hostname, ":") {
		hostname = "[" + hostname + "]"
	}

	if path == "" {
		path = "/"
	}

	if hostname == "localhost" && port != "" {
		return scheme + "://" + hostname + ":" + port + path
	}
	return scheme + "://" + hostname + path
}
