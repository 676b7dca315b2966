package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CONSOLE"

type Config interface {
	EnvConfig
	BackendConfig
	SessionConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
}

type BackendConfig interface {
	GetBackendBaseURL() string
	GetRequestTimeout() time.Duration
}

type mainConfig struct {
	v *viper.Viper
}

// New returns a configuration built from defaults and CONSOLE_* environment variables only.
func New() Config {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return mainConfig{v: v}
}

// Load reads configuration from an optional YAML file, the environment and any
// flags already bound to v. A nil v starts from an empty viper instance.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".lawfirm-console")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lawfirm-console")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("[config Load] reading config: %w", err)
		}
	}

	return mainConfig{v: v}, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyAppName, "Law Firm Console")
	v.SetDefault(keyDataFolder, "./data")
	v.SetDefault(keyEnv, "DEV")
	v.SetDefault(keyLogLevel, "info")

	v.SetDefault(keyBackendBaseURL, "http://localhost:5000/api")
	v.SetDefault(keyBackendTimeout, 10*time.Second)

	v.SetDefault(keyTokenFile, "")
	v.SetDefault(keySealPassphrase, "")
	v.SetDefault(keyStartupTimeout, 5*time.Second)

	v.SetDefault(keyLoginRate, 0.2)
	v.SetDefault(keyLoginBurst, 5)
}
