package guard

import (
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/users"
)

// Decision is what a protected view should do given the current session.
type Decision int

const (
	Wait                 Decision = iota // session still resolving; show a neutral indicator
	RedirectLogin                        // replace history with the login view
	RedirectUnauthorized                 // replace history with the unauthorized view
	Render
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Evaluate decides a view's fate. An empty required list admits any
// authenticated identity. Missing data always resolves to a redirect.
func Evaluate(status session.Status, user *users.Identity, required []users.RoleType) Decision {
	switch status {
	case session.Loading:
		return Wait
	case session.Authenticated:
		if user == nil {
			return RedirectLogin
		}
		if len(required) == 0 || user.HasRole(required...) {
			return Render
		}
		return RedirectUnauthorized
	default:
		return RedirectLogin
	}
}

// EvaluateSnapshot is Evaluate applied to a session snapshot.
func EvaluateSnapshot(s session.Snapshot, required []users.RoleType) Decision {
	return Evaluate(s.Status, s.User, required)
}
