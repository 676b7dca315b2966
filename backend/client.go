package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"github.com/jrsteele09/go-lawfirm-console/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Backend endpoints consumed by the session layer
const (
	PathMe       = "/auth/me"
	PathLogin    = "/auth/login"
	PathLogout   = "/auth/logout"
	PathRegister = "/auth/register"
)

// HeaderRequestID correlates console log lines with backend log lines.
const HeaderRequestID = "X-Request-ID"

const maxBodySize = 1 << 20

// Client talks to the firm's REST backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	requestIDs func() string
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds every request, including reading the response body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithRequestIDs replaces the request id generator (primarily for testing).
func WithRequestIDs(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.requestIDs = next
		}
	}
}

// New creates a client rooted at baseURL, e.g. "https://api.example-firm.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[backend New] invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[backend New] base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		requestIDs: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns a copy of the backend root URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Me returns the identity that owns accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (*users.Identity, error) {
	body, err := c.do(ctx, http.MethodGet, PathMe, nil, accessToken)
	if err != nil {
		return nil, err
	}
	return decodeIdentity(body)
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body, err := c.do(ctx, http.MethodPost, PathLogin, LoginRequest{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(body)
}

// Logout tells the backend the session is over. The response body is ignored.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, http.MethodPost, PathLogout, nil, accessToken)
	return err
}

// Register forwards the registration form verbatim.
func (c *Client) Register(ctx context.Context, registration users.Registration) (*AuthResponse, error) {
	if registration == nil {
		registration = users.Registration{}
	}
	body, err := c.do(ctx, http.MethodPost, PathRegister, registration, "")
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(body)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, accessToken string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "[backend %s %s] marshal", method, path)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[backend %s %s] new request", method, path)
	}
	requestID := c.requestIDs()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("request_id", requestID).Str("method", method).Str("path", path).Msg("Backend unreachable")
		return nil, fmt.Errorf("[backend %s %s] %w: %w", method, path, errors.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("[backend %s %s] %w: reading body: %w", method, path, errors.ErrUnreachable, err)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(data),
			Path:       path,
		}
	}
	return data, nil
}

// NewAuthorizedTransport returns a RoundTripper that attaches the current
// bearer token from source to every request.
func NewAuthorizedTransport(source oauth2.TokenSource, base http.RoundTripper) *oauth2.Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{Source: source, Base: base}
}
