package config

import (
	"path/filepath"
	"time"
)

const (
	keyTokenFile      = "session.token_file"
	keySealPassphrase = "session.seal_passphrase"
	keyStartupTimeout = "session.startup_timeout"

	defaultTokenFileName = "credentials.json"
)

type SessionConfig interface {
	GetTokenFile() string
	GetTokenSealPassphrase() string
	GetStartupCheckTimeout() time.Duration
}

var _ SessionConfig = mainConfig{}

// GetTokenFile returns where the access/refresh token pair is persisted.
// Defaults to credentials.json inside the data folder.
func (c mainConfig) GetTokenFile() string {
	if file := c.v.GetString(keyTokenFile); file != "" {
		return file
	}
	return filepath.Join(c.GetDataFolder(), defaultTokenFileName)
}

// GetTokenSealPassphrase returns the passphrase used to seal the token file at rest.
// Empty means the file is stored as plain JSON.
func (c mainConfig) GetTokenSealPassphrase() string {
	return c.v.GetString(keySealPassphrase)
}

func (c mainConfig) GetStartupCheckTimeout() time.Duration {
	timeout := c.v.GetDuration(keyStartupTimeout)
	if timeout <= 0 {
		return 5 * time.Second
	}
	return timeout
}
