package tokens

import (
	"github.com/rs/zerolog/log"
)

// Well-known keys of the persisted credentials document.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// Credentials is the bearer token pair issued by the backend on login or registration.
type Credentials struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Complete reports whether both tokens are present.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store persists the token pair. Implementations never fail: storage problems
// are logged and reads degrade to empty credentials. A Read never returns
// exactly one of the two tokens.
type Store interface {
	Write(accessToken, refreshToken string)
	Read() Credentials
	Clear()
}

// normalise turns a half-written pair into no credentials at all.
func normalise(c Credentials, source string) Credentials {
	if c.Complete() || c.Empty() {
		return c
	}
	log.Warn().Str("store", source).Msg("Discarding partial credentials")
	return Credentials{}
}

func validWrite(accessToken, refreshToken, source string) bool {
	if accessToken == "" || refreshToken == "" {
		log.Error().Str("store", source).
			Bool("access_token_present", accessToken != "").
			Bool("refresh_token_present", refreshToken != "").
			Msg("Refusing to persist incomplete credentials")
		return false
	}
	return true
}
