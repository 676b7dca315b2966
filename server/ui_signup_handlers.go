package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/users"
)

// registrationEcho lists the fields re-filled after a failed registration.
// The password is never echoed back.
var registrationEcho = []string{"firstName", "lastName", "email", "phone"}

// RegisterGetHandler renders the registration page
func (s *Server) RegisterGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if s.session.Snapshot().Status == session.Authenticated {
			redirectSuccess(w, r, RouteDashboard)
			return
		}
		data := s.page("Register", nil)
		data.Error = r.URL.Query().Get("error")
		data.Form = make(map[string]string, len(registrationEcho))
		for _, field := range registrationEcho {
			data.Form[field] = r.URL.Query().Get(field)
		}
		s.render(w, tmpl, http.StatusOK, data)
	}
}

// RegisterPostHandler forwards every submitted field to the backend and signs
// the new user in on success.
func (s *Server) RegisterPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		result := s.session.Register(r.Context(), registrationFromForm(r.PostForm))
		if !result.Success {
			query := url.Values{"error": {result.Message}}
			for _, field := range registrationEcho {
				query.Set(field, r.PostForm.Get(field))
			}
			redirectWithQuery(w, r, RouteRegister, query)
			return
		}
		redirectSuccess(w, r, RouteDashboard)
	}
}

func registrationFromForm(form url.Values) users.Registration {
	reg := make(users.Registration, len(form))
	for key, values := range form {
		if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		reg[key] = values[0]
	}
	return reg.Normalized()
}
