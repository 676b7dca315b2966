package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-lawfirm-console/backend"
	"github.com/jrsteele09/go-lawfirm-console/guard"
	"github.com/jrsteele09/go-lawfirm-console/internal/config"
	"github.com/jrsteele09/go-lawfirm-console/metrics"
	"github.com/jrsteele09/go-lawfirm-console/server"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/jrsteele09/go-lawfirm-console/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scriptable stand-in for the firm's REST API.
type fakeBackend struct {
	mu       sync.Mutex
	role     users.RoleType
	token    string // the access token the backend currently accepts
	lastAuth string
	lastReg  map[string]any
	srv      *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{role: users.RoleLawyer, token: "tok-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !fb.authorised(r) {
			writeBody(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
			return
		}
		writeBody(w, http.StatusOK, fb.identity())
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req backend.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeBody(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
			return
		}
		writeBody(w, http.StatusOK, fb.authResponse())
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var reg map[string]any
		_ = json.NewDecoder(r.Body).Decode(&reg)
		fb.mu.Lock()
		fb.lastReg = reg
		fb.role = users.RoleClient
		fb.mu.Unlock()
		writeBody(w, http.StatusCreated, fb.authResponse())
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/cases/{id}", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.lastAuth = r.Header.Get("Authorization")
		fb.mu.Unlock()
		if !fb.authorised(r) {
			writeBody(w, http.StatusForbidden, map[string]any{"message": "forbidden"})
			return
		}
		writeBody(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "query": r.URL.RawQuery})
	})
	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) authorised(r *http.Request) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+fb.token
}

func (fb *fakeBackend) identity() *users.Identity {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return &users.Identity{ID: "12", FirstName: "Lena", LastName: "Law", Email: "lena@example.com", Role: fb.role}
}

func (fb *fakeBackend) authResponse() backend.AuthResponse {
	user := fb.identity()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return backend.AuthResponse{AccessToken: fb.token, RefreshToken: "refresh-" + fb.token, User: user}
}

func (fb *fakeBackend) setRole(role users.RoleType) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.role = role
}

func (fb *fakeBackend) revoke() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.token = "rotated"
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type harness struct {
	backend    *fakeBackend
	store      *tokens.MemoryStore
	controller *session.Controller
	server     *server.Server
	registry   *prometheus.Registry
}

func newHarness(t *testing.T, settings map[string]any) *harness {
	t.Helper()
	fb := newFakeBackend(t)

	v := viper.New()
	v.Set("env", "TEST")
	v.Set("backend.base_url", fb.srv.URL)
	v.Set("security.login_rate", 0)
	for k, val := range settings {
		v.Set(k, val)
	}
	cfg, err := config.Load(v, "")
	require.NoError(t, err)

	client, err := backend.New(cfg.GetBackendBaseURL())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	store := tokens.NewMemoryStore()
	controller, err := session.NewController(store, client, session.WithRecorder(collector))
	require.NoError(t, err)
	g, err := guard.New(controller, guard.DefaultRequirements(), guard.WithRecorder(collector))
	require.NoError(t, err)

	srv, err := server.New(cfg, controller, g, store, server.WithMetrics(collector, reg))
	require.NoError(t, err)

	return &harness{backend: fb, store: store, controller: controller, server: srv, registry: reg}
}

func (h *harness) do(method, target string, form url.Values) *http.Response {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	h.server.ServeHTTP(w, req)
	return w.Result()
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	resp := h.do(http.MethodPost, server.RouteAuthLogin, url.Values{"email": {"lena@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, session.Authenticated, h.controller.Snapshot().Status)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := server.New(nil, nil, nil, nil)
	require.Error(t, err)
}

func TestGuardedView_LoadingShowsWaitingPage(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/app/payroll", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Checking your session")
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestGuardedView_UnauthenticatedRedirectsToLogin(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Start(context.Background())

	resp := h.do(http.MethodGet, "/app/payroll", nil)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fapp%2Fpayroll", resp.Header.Get("Location"))
}

func TestGuardedView_RoleChecks(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	resp := h.do(http.MethodGet, "/app/payroll", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteUnauthorized, resp.Header.Get("Location"))

	resp = h.do(http.MethodGet, "/app/cases", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `data-view="cases"`)
	assert.Contains(t, body, `href="/app/archive"`)
	assert.NotContains(t, body, `href="/app/payroll"`)

	resp = h.do(http.MethodGet, "/app/billing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(http.MethodGet, server.RouteUnauthorized, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIndex_RedirectsToDashboard(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteDashboard, resp.Header.Get("Location"))
}

func TestLogin_FailureReturnsToForm(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Start(context.Background())

	resp := h.do(http.MethodPost, server.RouteAuthLogin, url.Values{
		"email":    {"lena@example.com"},
		"password": {"wrong"},
		"next":     {"/app/cases"},
	})

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, server.RouteLogin, loc.Path)
	assert.Equal(t, "Invalid credentials", loc.Query().Get("error"))
	assert.Equal(t, "lena@example.com", loc.Query().Get("email"))
	assert.Equal(t, "/app/cases", loc.Query().Get("next"))
	assert.True(t, h.store.Read().Empty())
	assert.Equal(t, session.Unauthenticated, h.controller.Snapshot().Status)

	page := h.do(http.MethodGet, resp.Header.Get("Location"), nil)
	assert.Contains(t, readBody(t, page), "Invalid credentials")
}

func TestLogin_SuccessFollowsSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "/app/cases", want: "/app/cases"},
		{next: "https://evil.example.com/app/x", want: server.RouteDashboard},
		{next: "//evil.example.com", want: server.RouteDashboard},
		{next: "", want: server.RouteDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			h := newHarness(t, nil)
			resp := h.do(http.MethodPost, server.RouteAuthLogin, url.Values{
				"email": {"lena@example.com"}, "password": {"secret"}, "next": {tt.next},
			})
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get("Location"))
			assert.Equal(t, tokens.Credentials{AccessToken: "tok-1", RefreshToken: "refresh-tok-1"}, h.store.Read())
		})
	}
}

func TestLoginPage_AuthenticatedSkipsForm(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	resp := h.do(http.MethodGet, "/login?next=/app/documents", nil)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/app/documents", resp.Header.Get("Location"))
}

func TestLogin_RateLimited(t *testing.T) {
	h := newHarness(t, map[string]any{"security.login_rate": 0.0001, "security.login_burst": 1})
	form := url.Values{"email": {"lena@example.com"}, "password": {"wrong"}}

	first := h.do(http.MethodPost, server.RouteAuthLogin, form)
	second := h.do(http.MethodPost, server.RouteAuthLogin, form)

	loc, _ := url.Parse(first.Header.Get("Location"))
	assert.Equal(t, "Invalid credentials", loc.Query().Get("error"))
	loc, _ = url.Parse(second.Header.Get("Location"))
	assert.Contains(t, loc.Query().Get("error"), "too many attempts")
	assert.NotEmpty(t, second.Header.Get("Retry-After"))
}

func TestLogout(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	resp := h.do(http.MethodPost, server.RouteAuthLogout, nil)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
	assert.Equal(t, session.Unauthenticated, h.controller.Snapshot().Status)
	assert.True(t, h.store.Read().Empty())

	// Back to a guarded page after logout.
	resp = h.do(http.MethodGet, "/app/cases", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogout_GetDoesNotEndSession(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	resp := h.do(http.MethodGet, server.RouteAuthLogout, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, session.Authenticated, h.controller.Snapshot().Status)
	assert.False(t, h.store.Read().Empty())
}

func TestLogout_CrossSitePostRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthLogout, nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	w := httptest.NewRecorder()
	h.server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, session.Authenticated, h.controller.Snapshot().Status)
	assert.False(t, h.store.Read().Empty())

	req = httptest.NewRequest(http.MethodPost, server.RouteAuthLogout, nil)
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	w = httptest.NewRecorder()
	h.server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, session.Unauthenticated, h.controller.Snapshot().Status)
}

func TestRegister_ForwardsFormAndSignsIn(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodPost, server.RouteAuthRegister, url.Values{
		"firstName":   {" Nia "},
		"lastName":    {"Client"},
		"email":       {"nia@example.com"},
		"password":    {"pw"},
		"companyName": {"Acme Ltd"},
		"phone":       {""},
	})

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteDashboard, resp.Header.Get("Location"))
	assert.Equal(t, map[string]any{
		"firstName":   "Nia",
		"lastName":    "Client",
		"email":       "nia@example.com",
		"password":    "pw",
		"companyName": "Acme Ltd",
	}, h.backend.lastReg)

	snap := h.controller.Snapshot()
	require.Equal(t, session.Authenticated, snap.Status)
	assert.Equal(t, users.RoleClient, snap.User.Role)
}

func TestRegisterPage_Renders(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/register?error=Email+taken&email=a%40b.c", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Email taken")
	assert.Contains(t, body, `value="a@b.c"`)
}

func TestAPIProxy_AttachesBearerToken(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cases/42?open=true", nil)
	req.Header.Set("Authorization", "Bearer forged")
	req.Header.Set("Cookie", "a=b")
	w := httptest.NewRecorder()
	h.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "42", body["id"])
	assert.Equal(t, "open=true", body["query"])
	assert.Equal(t, "Bearer tok-1", h.backend.lastAuth)
}

func TestAPIProxy_CrossSiteWriteRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	req := httptest.NewRequest(http.MethodPost, "/api/cases/42", strings.NewReader("{}"))
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	h.server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, h.backend.lastAuth)
}

func TestAPIProxy_RejectsEncodedParentSegments(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	for _, target := range []string{"/api/..%2Fauth/me", "/api/cases/..%2F..%2Fadmin", "/api/cases/%2E%2E/1"} {
		t.Run(target, func(t *testing.T) {
			resp := h.do(http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Empty(t, h.backend.lastAuth)
	assert.Equal(t, session.Authenticated, h.controller.Snapshot().Status)
}

func TestAPIProxy_RejectionInvalidatesSession(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.backend.revoke()

	resp := h.do(http.MethodGet, "/api/cases/1", nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, session.Unauthenticated, h.controller.Snapshot().Status)
	assert.True(t, h.store.Read().Empty())
}

func TestAPIProxy_RequiresSession(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/api/cases/1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	h.controller.Start(context.Background())
	resp = h.do(http.MethodGet, "/api/cases/1", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	resp := h.do(http.MethodGet, server.RouteSession, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string          `json:"status"`
		User   *users.Identity `json:"user"`
		Views  []string        `json:"views"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "authenticated", body.Status)
	assert.Equal(t, users.RoleLawyer, body.User.Role)
	assert.Contains(t, body.Views, "archive")
	assert.NotContains(t, body.Views, "payroll")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Start(context.Background())
	h.do(http.MethodGet, "/app/cases", nil)

	resp := h.do(http.MethodGet, server.RouteHealth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","session":"unauthenticated"}`, readBody(t, resp))

	resp = h.do(http.MethodGet, server.RouteMetrics, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `lawfirm_console_guard_decisions_total{decision="redirect_login",view="cases"} 1`)
	assert.Contains(t, body, `lawfirm_console_auth_checks_total{outcome="no_token"} 1`)
}

func TestStaticCSS(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/css/console.css", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, resp.Header.Get("Cache-Control"), "max-age=300")
}

func TestRoutes(t *testing.T) {
	h := newHarness(t, nil)

	routes := h.server.Routes()
	assert.Contains(t, routes, "GET "+server.RouteLogin)
	assert.Contains(t, routes, "GET "+server.RouteAppView)
	assert.Contains(t, routes, server.RouteAPIProxy)
	assert.Contains(t, routes, "POST "+server.RouteAuthLogout)
	assert.NotContains(t, routes, "GET "+server.RouteAuthLogout)

	method, path := server.SplitPattern(server.RouteAPIProxy)
	assert.Empty(t, method)
	assert.Equal(t, server.RouteAPIProxy, path)
}

func TestGuardedView_AdminOpensPayroll(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.setRole(users.RoleAdmin)
	h.login(t)

	resp := h.do(http.MethodGet, "/app/payroll", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `data-view="payroll"`)
}
