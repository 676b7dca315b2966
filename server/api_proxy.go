package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-lawfirm-console/backend"
	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/rs/zerolog/log"
)

// newAPIProxy relays /api/{path...} to the backend with the stored bearer
// token attached. Browser credentials are never forwarded.
func (s *Server) newAPIProxy(base http.RoundTripper) http.Handler {
	target, err := url.Parse(s.config.GetBackendBaseURL())
	if err != nil {
		log.Err(err).Str("url", s.config.GetBackendBaseURL()).Msg("Invalid backend base URL, API proxy disabled")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": session.MsgUnreachable})
		})
	}

	return &httputil.ReverseProxy{
		Transport: backend.NewAuthorizedTransport(tokens.NewTokenSource(s.store), base),
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = strings.TrimSuffix(target.Path, "/") + "/" + pr.In.PathValue("path")
			pr.Out.URL.RawPath = ""
			pr.Out.URL.RawQuery = pr.In.URL.RawQuery
			pr.Out.Host = target.Host
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
			pr.SetXForwarded()
		},
		ModifyResponse: s.observeProxyResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, errors.ErrNoCredentials) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": session.MsgInvalidCredentials})
				return
			}
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("API proxy request failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": session.MsgUnreachable})
		},
	}
}

// observeProxyResponse ends the session when the backend rejects the token
// that was actually sent. A rejection of an older token is ignored.
func (s *Server) observeProxyResponse(resp *http.Response) error {
	if s.metrics != nil {
		s.metrics.RecordProxyStatus(resp.StatusCode)
	}
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return nil
	}
	if resp.Request == nil {
		return nil
	}
	sent, ok := strings.CutPrefix(resp.Request.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil
	}
	if s.session.InvalidateToken(sent) {
		log.Info().Int("status", resp.StatusCode).Str("path", resp.Request.URL.Path).Msg("Backend rejected the session token")
	}
	return nil
}

// APIProxyHandler relays to the backend. Paths that climb out of the API root
// once decoded are refused.
func (s *Server) APIProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !proxiedPathAllowed(r.PathValue("path")) {
			log.Warn().Str("path", r.URL.EscapedPath()).Msg("API proxy path rejected")
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid path"})
			return
		}
		s.apiProxy.ServeHTTP(w, r)
	}
}

func proxiedPathAllowed(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return false
		}
	}
	return true
}

// RequireSessionMiddleware rejects API calls until the session is established.
func (s *Server) RequireSessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch s.session.Snapshot().Status {
		case session.Authenticated:
			next(w, r)
		case session.Loading:
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "session is still loading"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "not signed in"})
		}
	}
}
