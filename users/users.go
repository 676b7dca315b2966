package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
)

// RoleType is the closed set of roles that gate dashboard views
type RoleType string

const (
	RoleSuperAdmin RoleType = "SUPER_ADMIN" // Full control, including user management
	RoleAdmin      RoleType = "ADMIN"       // Firm administration (HR, payroll, users)
	RoleLawyer     RoleType = "LAWYER"      // Case work, consultations, archive
	RoleTrainee    RoleType = "TRAINEE"     // Supervised case work and training programs
	RoleClient     RoleType = "CLIENT"      // The firm's clients
)

var allRoles = []RoleType{RoleSuperAdmin, RoleAdmin, RoleLawyer, RoleTrainee, RoleClient}

// AllRoles returns every role in descending order of privilege.
func AllRoles() []RoleType {
	roles := make([]RoleType, len(allRoles))
	copy(roles, allRoles)
	return roles
}

// ParseRole accepts any casing and surrounding whitespace ("admin", " Lawyer ").
func ParseRole(s string) (RoleType, error) {
	role := RoleType(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", errors.Wrapf(errors.ErrInvalidRole, "[ParseRole] %q", s)
	}
	return role, nil
}

func (r RoleType) IsValid() bool {
	for _, role := range allRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r RoleType) String() string {
	return string(r)
}

// ID is the backend's user identifier. The backend emits it as either a JSON
// number or a string, so both forms decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("[users ID] unsupported id value %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Identity is the subset of the authenticated user's profile the console
// needs for session and routing decisions.
type Identity struct {
	ID        ID       `json:"id"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Email     string   `json:"email,omitempty"`
	Role      RoleType `json:"role"`
	Status    string   `json:"status,omitempty"`
}

// Validate reports whether the identity is well formed: an id and a known role.
func (u *Identity) Validate() error {
	if u == nil {
		return errors.ErrMissingIdentity
	}
	if strings.TrimSpace(string(u.ID)) == "" {
		return errors.Wrapf(errors.ErrMissingIdentity, "[Identity Validate] empty id")
	}
	if !u.Role.IsValid() {
		return errors.Wrapf(errors.ErrInvalidRole, "[Identity Validate] %q", u.Role)
	}
	return nil
}

func (u *Identity) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether the identity holds one of roles.
func (u *Identity) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *Identity) IsSuperAdmin() bool {
	return u.HasRole(RoleSuperAdmin)
}

// IsStaff is true for everyone employed by the firm, i.e. every role except CLIENT.
func (u *Identity) IsStaff() bool {
	return u.HasRole(RoleSuperAdmin, RoleAdmin, RoleLawyer, RoleTrainee)
}

// Clone returns an independent copy; nil stays nil.
func (u *Identity) Clone() *Identity {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
