package config

import (
	"strings"
	"time"
)

const (
	keyBackendBaseURL = "backend.base_url"
	keyBackendTimeout = "backend.timeout"
)

var _ BackendConfig = mainConfig{}

// GetBackendBaseURL returns the REST backend root, e.g. "https://api.example-firm.com/api".
// Trailing slashes are removed so paths can be appended directly.
func (c mainConfig) GetBackendBaseURL() string {
	return strings.TrimRight(c.v.GetString(keyBackendBaseURL), "/")
}

func (c mainConfig) GetRequestTimeout() time.Duration {
	timeout := c.v.GetDuration(keyBackendTimeout)
	if timeout <= 0 {
		return 10 * time.Second
	}
	return timeout
}
