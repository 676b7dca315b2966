package server

import (
	"net/http"
	"net/url"
	"strings"
)

const contentTypeHTML = "text/html; charset=utf-8"

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectWithQuery(w, r, path, url.Values{"error": {errorMsg}})
}

func redirectWithQuery(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	for k, v := range query {
		if len(v) == 0 || v[0] == "" {
			delete(query, k)
		}
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	redirectSuccess(w, r, path)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// safeNext returns next when it is a local dashboard path, otherwise the dashboard.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, RouteAppPrefix) || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return RouteDashboard
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return RouteDashboard
	}
	return u.Path
}
