package session

import (
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-lawfirm-console/users"
)

// Status is the authentication state of the process-wide session.
type Status int

const (
	Loading Status = iota
	Authenticated
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Snapshot is an immutable view of the session at one point in time.
// Status is Authenticated exactly when User is non-nil.
type Snapshot struct {
	Status  Status          `json:"status"`
	User    *users.Identity `json:"user,omitempty"`
	Version uint64          `json:"version"` // increases with every committed transition

	CheckedAt      time.Time `json:"checkedAt,omitzero"`       // when the backend last confirmed or rejected the token
	LastCheckError string    `json:"lastCheckError,omitempty"` // diagnostic only, never changes Status
}

// Result is what login and registration report back to forms.
type Result struct {
	Success bool
	Message string
	User    *users.Identity
}

// User-facing failure messages.
const (
	MsgUnreachable        = "cannot reach server"
	MsgInvalidCredentials = "invalid credentials"
	MsgLoginFailed        = "login failed"
	MsgRegisterFailed     = "registration failed"
	MsgMalformedResponse  = "unexpected response from server"
	MsgMissingCredentials = "email and password are required"
)
