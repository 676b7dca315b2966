package backend

import (
	"bytes"
	"encoding/json"

	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"github.com/jrsteele09/go-lawfirm-console/users"
)

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         *users.Identity `json:"user"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeAuthResponse(body []byte) (*AuthResponse, error) {
	var envelope struct {
		AuthResponse
		Data *AuthResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "[decodeAuthResponse] %s", err.Error())
	}
	if envelope.Data != nil && envelope.AccessToken == "" {
		return envelope.Data, nil
	}
	resp := envelope.AuthResponse
	return &resp, nil
}

// decodeIdentity accepts a bare identity or one wrapped in "user" or "data".
func decodeIdentity(body []byte) (*users.Identity, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "[decodeIdentity] expected a JSON object")
	}

	var envelope struct {
		User *users.Identity `json:"user"`
		Data *users.Identity `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.User != nil:
			return envelope.User, nil
		case envelope.Data != nil:
			return envelope.Data, nil
		}
	}

	var identity users.Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "[decodeIdentity] %s", err.Error())
	}
	return &identity, nil
}

func decodeErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
