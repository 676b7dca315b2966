package config

import (
	"golang.org/x/time/rate"
)

const (
	keyLoginRate  = "security.login_rate"
	keyLoginBurst = "security.login_burst"
)

type SecurityConfig interface {
	GetLoginRateLimit() rate.Limit
	GetLoginBurst() int
}

var _ SecurityConfig = mainConfig{}

// GetLoginRateLimit is the sustained rate of login/register submissions the
// dashboard accepts, in events per second.
func (c mainConfig) GetLoginRateLimit() rate.Limit {
	r := c.v.GetFloat64(keyLoginRate)
	if r <= 0 {
		return rate.Inf
	}
	return rate.Limit(r)
}

func (c mainConfig) GetLoginBurst() int {
	burst := c.v.GetInt(keyLoginBurst)
	if burst < 1 {
		return 1
	}
	return burst
}
