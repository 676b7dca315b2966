package cli_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-lawfirm-console/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	user := map[string]any{"id": 3, "firstName": "Tom", "lastName": "Trainee", "email": "tom@example.com", "role": "TRAINEE"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "a", "refreshToken": "b", "user": user})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["companyName"] != "Acme Ltd" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"companyName is required"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"accessToken": "c", "refreshToken": "d", "user": user}})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a" && r.Header.Get("Authorization") != "Bearer c" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"user": user})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type runner struct {
	backendURL string
	tokenFile  string
}

func newRunner(t *testing.T) *runner {
	t.Setenv("CONSOLE_ENV", "TEST")
	t.Setenv("CONSOLE_LOG_LEVEL", "error")
	return &runner{
		backendURL: newBackend(t).URL,
		tokenFile:  filepath.Join(t.TempDir(), "credentials.json"),
	}
}

func (r *runner) run(stdin string, args ...string) (string, error) {
	cmd := cli.NewRootCmd("1.2.3")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color", "--backend-url", r.backendURL, "--token-file", r.tokenFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	r := newRunner(t)

	out, err := r.run("", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, err = r.run("", "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["version"])
}

func TestRoutes(t *testing.T) {
	r := newRunner(t)

	out, err := r.run("", "routes", "--role", "client")
	require.NoError(t, err)
	assert.Contains(t, out, "/app/company-formation")
	assert.Contains(t, out, "redirect_unauthorized")
	assert.Contains(t, out, "render")

	_, err = r.run("", "routes", "--role", "PARTNER")
	assert.Error(t, err)
}

func TestLoginStatusLogout(t *testing.T) {
	r := newRunner(t)

	out, err := r.run("", "login", "--email", "tom@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Tom Trainee (TRAINEE)")

	raw, err := os.ReadFile(r.tokenFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accessToken":"a","refreshToken":"b"}`, string(raw))

	out, err = r.run("", "status", "--json")
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "authenticated", report["status"])
	assert.Equal(t, r.tokenFile, report["tokenFile"])

	out, err = r.run("", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "TRAINEE")

	out, err = r.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	_, err = os.Stat(r.tokenFile)
	assert.True(t, os.IsNotExist(err))

	out, err = r.run("", "status", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "unauthenticated", report["status"])
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("secret\n", "login", "--email", "tom@example.com")
	require.NoError(t, err)
}

func TestLogin_Failure(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("", "login", "--email", "tom@example.com", "--password", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	_, statErr := os.Stat(r.tokenFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRegister(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("", "register", "--email", "tom@example.com", "--password", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "companyName is required")

	out, err := r.run("", "register", "--email", "tom@example.com", "--password", "pw", "--field", "companyName=Acme Ltd")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered and signed in")

	raw, err := os.ReadFile(r.tokenFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"accessToken":"c"`)
}

func TestInvalidConfigFile(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "version")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
