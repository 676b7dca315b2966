package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-lawfirm-console/guard"
)

// loadingRefreshSeconds is how often the loading page polls while the
// startup session check is still in flight.
const loadingRefreshSeconds = 1

// GuardMiddleware applies the route guard to /app/{view}. Redirects use 303 so
// the guarded URL does not stay in the browser history as a form target.
func (s *Server) GuardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	loadingTmpl := mustParseTemplate("loading.html")
	notFoundTmpl := mustParseTemplate("notfound.html")

	return func(w http.ResponseWriter, r *http.Request) {
		view := guard.View(r.PathValue("view"))
		decision, known := s.guard.Check(view)
		if !known {
			s.render(w, notFoundTmpl, http.StatusNotFound, s.page("Not found", s.session.Snapshot().User))
			return
		}

		switch decision {
		case guard.Wait:
			data := s.page("Loading", nil)
			data.Refresh = loadingRefreshSeconds
			s.render(w, loadingTmpl, http.StatusOK, data)
		case guard.RedirectLogin:
			redirectWithQuery(w, r, RouteLogin, url.Values{"next": {r.URL.Path}})
		case guard.RedirectUnauthorized:
			redirectSuccess(w, r, RouteUnauthorized)
		case guard.Render:
			next(w, r)
		}
	}
}

// ViewHandler renders a dashboard view the guard has already admitted.
func (s *Server) ViewHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("view.html")

	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.session.Snapshot()
		if snap.User == nil {
			// Logged out between the guard and here.
			redirectWithQuery(w, r, RouteLogin, url.Values{"next": {r.URL.Path}})
			return
		}
		view := guard.View(r.PathValue("view"))
		data := s.page(view.String(), snap.User)
		data.View = view
		data.Nav = s.guard.Visible(snap.User)
		s.render(w, tmpl, http.StatusOK, data)
	}
}

func (s *Server) UnauthorizedHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("unauthorized.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, tmpl, http.StatusForbidden, s.page("Access denied", s.session.Snapshot().User))
	}
}
