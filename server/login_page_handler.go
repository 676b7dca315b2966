package server

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-lawfirm-console/guard"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/users"
	"github.com/rs/zerolog/log"
)

// PageData is the model shared by every page template.
type PageData struct {
	AppName string
	Title   string
	Refresh int // seconds until the browser reloads, 0 for never
	User    *users.Identity
	Error   string
	Email   string
	Next    string
	Form    map[string]string
	View    guard.View
	Nav     []guard.View
}

func (s *Server) page(title string, user *users.Identity) PageData {
	return PageData{AppName: s.appName, Title: title, User: user}
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, status int, data PageData) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, tmpl.Name(), data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
	}
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		next := safeNext(r.URL.Query().Get("next"))
		if snap := s.session.Snapshot(); snap.Status == session.Authenticated {
			redirectSuccess(w, r, next)
			return
		}

		data := s.page("Sign in", nil)
		data.Error = r.URL.Query().Get("error")
		data.Email = r.URL.Query().Get("email")
		data.Next = next
		s.render(w, loginTmpl, http.StatusOK, data)
	}
}

// LoginSubmissionHandler processes the login form submission (POST /auth/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := r.PostFormValue("email")
		next := safeNext(r.PostFormValue("next"))

		result := s.session.Login(r.Context(), email, r.PostFormValue("password"))
		if !result.Success {
			redirectWithQuery(w, r, RouteLogin, url.Values{
				"error": {result.Message},
				"email": {email},
				"next":  {next},
			})
			return
		}
		redirectSuccess(w, r, next)
	}
}

// LogoutHandler ends the session locally even when the backend cannot be told.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.session.Logout(r.Context())
		redirectSuccess(w, r, RouteLogin)
	}
}
