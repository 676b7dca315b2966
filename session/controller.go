package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-lawfirm-console/backend"
	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/jrsteele09/go-lawfirm-console/users"
	"github.com/rs/zerolog/log"
)

// IdentityAPI is the part of the backend the session depends on.
type IdentityAPI interface {
	Me(ctx context.Context, accessToken string) (*users.Identity, error)
	Login(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Register(ctx context.Context, registration users.Registration) (*backend.AuthResponse, error)
}

var _ IdentityAPI = (*backend.Client)(nil)

// Controller is the single writer of the session state and of the token store.
// Every other component reads snapshots or subscribes to changes.
type Controller struct {
	store    tokens.Store
	api      IdentityAPI
	recorder Recorder
	nowTime  func() time.Time

	mu             sync.Mutex
	state          Snapshot
	ticket         uint64 // advanced by every operation that may commit a transition
	subscribers    map[int]func(Snapshot)
	nextSubscriber int

	startOnce sync.Once
}

// ControllerOption modifies a Controller at construction time.
type ControllerOption func(*Controller)

func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

// NewController creates a controller in the Loading state. Call Start once the
// application is wired to resolve it.
func NewController(store tokens.Store, api IdentityAPI, opts ...ControllerOption) (*Controller, error) {
	if store == nil {
		return nil, errors.New("[NewController] token store is required")
	}
	if api == nil {
		return nil, errors.New("[NewController] identity API is required")
	}

	c := &Controller{
		store:       store,
		api:         api,
		recorder:    nopRecorder{},
		nowTime:     time.Now,
		state:       Snapshot{Status: Loading},
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState()
}

// Subscribe registers fn to be called after every committed transition.
// Callbacks run outside the controller's lock and may arrive out of order
// under concurrent transitions; compare Snapshot.Version to drop older ones.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubscriber
	c.nextSubscriber++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Start performs the startup token validation. Only the first call does any
// work; later calls return the current snapshot.
func (c *Controller) Start(ctx context.Context) Snapshot {
	c.startOnce.Do(func() {
		c.CheckAuth(ctx)
	})
	return c.Snapshot()
}

// CheckAuth re-derives the session from the token store and the backend.
// A result that arrives after a newer operation has started is discarded.
func (c *Controller) CheckAuth(ctx context.Context) Snapshot {
	ticket := c.issueTicket()
	logger := log.With().Str("check_id", uuid.New().String()).Logger()

	creds := c.store.Read()
	if !creds.Complete() {
		c.recorder.RecordCheck(CheckNoToken)
		logger.Debug().Msg("No stored credentials")
		snap, _ := c.transition(ticket, func(s *Snapshot) bool {
			s.Status, s.User = Unauthenticated, nil
			s.LastCheckError = ""
			return true
		})
		return snap
	}

	identity, err := c.api.Me(ctx, creds.AccessToken)
	if err == nil {
		if verr := identity.Validate(); verr != nil {
			err = errors.Wrapf(errors.ErrMalformedResponse, "[CheckAuth] %s", verr.Error())
		}
	}
	now := c.nowTime()

	if err == nil {
		c.recorder.RecordCheck(CheckValid)
		user := identity.Clone()
		snap, _ := c.transition(ticket, func(s *Snapshot) bool {
			s.Status, s.User = Authenticated, user
			s.CheckedAt, s.LastCheckError = now, ""
			return true
		})
		return snap
	}

	if backend.IsAuthorization(err) {
		c.recorder.RecordCheck(CheckRejected)
		logger.Info().Int("status", backend.StatusCode(err)).Msg("Stored token rejected, clearing credentials")
		snap, _ := c.transition(ticket, func(s *Snapshot) bool {
			// Only clear the pair that was actually rejected.
			if c.store.Read().AccessToken == creds.AccessToken {
				c.store.Clear()
			}
			s.Status, s.User = Unauthenticated, nil
			s.CheckedAt, s.LastCheckError = now, err.Error()
			return true
		})
		return snap
	}

	// Transient failures leave the stored tokens alone.
	switch {
	case backend.IsUnreachable(err):
		c.recorder.RecordCheck(CheckUnreachable)
	case errors.Is(err, errors.ErrMalformedResponse):
		c.recorder.RecordCheck(CheckMalformed)
	default:
		c.recorder.RecordCheck(CheckFailed)
	}
	logger.Warn().Err(err).Msg("Identity check failed, keeping stored credentials")
	snap, _ := c.transition(ticket, func(s *Snapshot) bool {
		s.Status, s.User = Unauthenticated, nil
		s.LastCheckError = err.Error()
		return true
	})
	return snap
}

// Login authenticates with email and password. It never panics and never
// returns an error: failures are reported in the Result with a message fit
// for display, and leave the session and the token store untouched.
func (c *Controller) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		c.recorder.RecordAuthAttempt("login", false)
		return Result{Message: MsgMissingCredentials}
	}

	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		log.Info().Err(err).Str("email", email).Msg("Login failed")
		c.recorder.RecordAuthAttempt("login", false)
		return Result{Message: failureMessage(err, MsgLoginFailed)}
	}
	return c.establish("login", resp)
}

// Register forwards the registration form verbatim and, on success, signs the
// new user in exactly as Login does.
func (c *Controller) Register(ctx context.Context, registration users.Registration) Result {
	resp, err := c.api.Register(ctx, registration)
	if err != nil {
		log.Info().Err(err).Str("email", registration.Email()).Msg("Registration failed")
		c.recorder.RecordAuthAttempt("register", false)
		return Result{Message: failureMessage(err, MsgRegisterFailed)}
	}
	return c.establish("register", resp)
}

// Logout notifies the backend on a best-effort basis, then clears the stored
// credentials and the session. It always succeeds locally.
func (c *Controller) Logout(ctx context.Context) Snapshot {
	if creds := c.store.Read(); creds.Complete() {
		if err := c.api.Logout(ctx, creds.AccessToken); err != nil {
			log.Warn().Err(err).Msg("Backend logout failed, clearing local session anyway")
		}
	}

	snap, _ := c.transition(0, func(s *Snapshot) bool {
		c.store.Clear()
		s.Status, s.User = Unauthenticated, nil
		s.LastCheckError = ""
		return true
	})
	return snap
}

// InvalidateToken ends the session after the backend rejected accessToken
// with 401/403 outside the identity check. It is a no-op when accessToken is
// no longer the stored token, so a late rejection cannot undo a newer login.
func (c *Controller) InvalidateToken(accessToken string) bool {
	if accessToken == "" {
		return false
	}
	_, changed := c.transition(0, func(s *Snapshot) bool {
		if c.store.Read().AccessToken != accessToken {
			return false
		}
		c.store.Clear()
		s.Status, s.User = Unauthenticated, nil
		s.LastCheckError = errors.ErrUnauthorized.Error()
		return true
	})
	if changed {
		log.Info().Msg("Session invalidated after backend rejected the access token")
	}
	return changed
}

// establish commits a login or registration response. The tokens are written
// before the Authenticated state becomes visible to readers.
func (c *Controller) establish(operation string, resp *backend.AuthResponse) Result {
	if err := validateAuthResponse(resp); err != nil {
		log.Warn().Err(err).Str("operation", operation).Msg("Rejecting malformed authentication response")
		c.recorder.RecordAuthAttempt(operation, false)
		return Result{Message: MsgMalformedResponse}
	}

	user := resp.User.Clone()
	now := c.nowTime()
	snap, _ := c.transition(0, func(s *Snapshot) bool {
		c.store.Write(resp.AccessToken, resp.RefreshToken)
		s.Status, s.User = Authenticated, user
		s.CheckedAt, s.LastCheckError = now, ""
		return true
	})

	c.recorder.RecordAuthAttempt(operation, true)
	log.Info().Str("operation", operation).Str("user_id", user.ID.String()).Str("role", user.Role.String()).Msg("Signed in")
	return Result{Success: true, User: snap.User.Clone()}
}

func (c *Controller) issueTicket() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticket++
	return c.ticket
}

// transition applies a state change under the lock and publishes it.
// A non-zero ticket must still be the latest one issued or the change is
// dropped; a zero ticket takes a fresh one, superseding in-flight checks.
// apply returns false to abort without publishing.
func (c *Controller) transition(ticket uint64, apply func(*Snapshot) bool) (Snapshot, bool) {
	c.mu.Lock()
	if ticket == 0 {
		c.ticket++
	} else if ticket != c.ticket {
		snap := c.copyState()
		c.mu.Unlock()
		c.recorder.RecordStaleDiscard()
		log.Debug().Uint64("ticket", ticket).Msg("Discarding stale session result")
		return snap, false
	}

	prev := c.state.Status
	next := c.state
	if !apply(&next) {
		snap := c.copyState()
		c.mu.Unlock()
		return snap, false
	}
	next.Version = c.state.Version + 1
	c.state = next
	snap := c.copyState()

	subscribers := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	if prev != snap.Status {
		c.recorder.RecordTransition(snap.Status.String())
		log.Info().Str("from", prev.String()).Str("to", snap.Status.String()).Uint64("version", snap.Version).Msg("Session transition")
	}
	for _, fn := range subscribers {
		fn(snapCopy(snap))
	}
	return snap, true
}

func (c *Controller) copyState() Snapshot {
	return snapCopy(c.state)
}

func snapCopy(s Snapshot) Snapshot {
	s.User = s.User.Clone()
	return s
}

func validateAuthResponse(resp *backend.AuthResponse) error {
	if resp == nil {
		return errors.ErrMalformedResponse
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return errors.Wrapf(errors.ErrMalformedResponse, "[validateAuthResponse] missing token")
	}
	if err := resp.User.Validate(); err != nil {
		return errors.Wrapf(errors.ErrMalformedResponse, "[validateAuthResponse] %s", err.Error())
	}
	return nil
}

func failureMessage(err error, fallback string) string {
	switch {
	case backend.IsUnreachable(err):
		return MsgUnreachable
	case errors.Is(err, errors.ErrMalformedResponse):
		return MsgMalformedResponse
	case backend.StatusCode(err) == http.StatusUnauthorized:
		if msg := backend.MessageOf(err); msg != "" {
			return msg
		}
		return MsgInvalidCredentials
	default:
		if msg := backend.MessageOf(err); msg != "" {
			return msg
		}
		return fallback
	}
}
