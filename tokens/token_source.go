package tokens

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*TokenSource)(nil)

// TokenSource exposes the stored access token to the oauth2 HTTP transport so
// every request made through it carries the current bearer credential.
type TokenSource struct {
	store Store
}

func NewTokenSource(store Store) *TokenSource {
	return &TokenSource{store: store}
}

func (ts *TokenSource) Token() (*oauth2.Token, error) {
	creds := ts.store.Read()
	if !creds.Complete() {
		return nil, errors.ErrNoCredentials
	}
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := ExpiryOf(creds.AccessToken); ok {
		token.Expiry = exp
	}
	return token, nil
}

// ExpiryOf reads the exp claim of a JWT access token without verifying it.
// Only informational: the backend is the sole authority on token validity.
func ExpiryOf(accessToken string) (time.Time, bool) {
	if accessToken == "" {
		return time.Time{}, false
	}
	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
