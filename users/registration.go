package users

import "strings"

// Registration is the sign-up form exactly as the user filled it in. It is
// forwarded to the backend unchanged, so fields the console does not know
// about survive the round trip.
type Registration map[string]any

func (r Registration) Email() string {
	s, _ := r["email"].(string)
	return strings.TrimSpace(s)
}

// Normalized returns a copy with surrounding whitespace trimmed from string values.
func (r Registration) Normalized() Registration {
	out := make(Registration, len(r))
	for k, v := range r {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
			continue
		}
		out[k] = v
	}
	return out
}
