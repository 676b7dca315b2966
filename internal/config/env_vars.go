package config

import (
	"strings"
)

const (
	keyPort       = "port"
	keyAppName    = "app_name"
	keyDataFolder = "data_folder"
	keyEnv        = "env"
	keyLogLevel   = "log_level"
)

var _ EnvConfig = mainConfig{}

const defaultListenHost = "127.0.0.1"

// GetPort returns the listen address. A bare port binds to loopback only; the
// proxy acts with the operator's token, so listening on every interface has
// to be asked for explicitly (":8080" or "0.0.0.0:8080").
func (c mainConfig) GetPort() string {
	port := strings.TrimSpace(c.v.GetString(keyPort))
	if port == "" {
		port = "8080"
	}
	if !strings.Contains(port, ":") {
		port = defaultListenHost + ":" + port
	}
	return port
}

func (c mainConfig) GetAppName() string {
	return c.v.GetString(keyAppName)
}

func (c mainConfig) GetDataFolder() string {
	return c.v.GetString(keyDataFolder)
}

func (c mainConfig) GetEnv() string {
	env := strings.ToUpper(strings.TrimSpace(c.v.GetString(keyEnv)))
	if env == "" {
		return "DEV"
	}
	return env
}

func (c mainConfig) GetLogLevel() string {
	return strings.ToLower(c.v.GetString(keyLogLevel))
}
