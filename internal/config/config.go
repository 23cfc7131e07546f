package config

import (
	"time"

	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

type Config interface {
	EnvConfig
	APIConfig
	GoogleConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetRequestsPerSecond() float64
}

type mainConfig struct {
	EnvVars
	API
	Google
	Storage
}

// New loads configuration from an optional .env file in the working directory
// followed by the process environment. Environment variables win.
func New() Config {
	return Load(defaultEnvFile)
}

// Load is New with an explicit .env path. A missing file is ignored.
func Load(envFile string) Config {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}
	v.AutomaticEnv()
	setDefaults(v)

	return mainConfig{
		EnvVars: EnvVars{v: v},
		API:     API{v: v},
		Google:  Google{v: v},
		Storage: Storage{v: v},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameVar, "Trails Auth")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")

	v.SetDefault(apiBaseURLVar, "https://localhost:5001/api")
	v.SetDefault(requestTimeoutVar, "15s")
	v.SetDefault(requestsPerSecondVar, 0)

	v.SetDefault(googleIssuerVar, "https://accounts.google.com")

	v.SetDefault(storageDriverVar, StorageDriverFile)
	v.SetDefault(dataFolderVar, "./data")
	v.SetDefault(redisAddrVar, "127.0.0.1:6379")
	v.SetDefault(redisDBVar, 0)
	v.SetDefault(redisKeyPrefixVar, "trails:")
}
