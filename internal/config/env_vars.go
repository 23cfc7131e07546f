package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"

	apiBaseURLVar        = "API_BASE_URL"
	requestTimeoutVar    = "REQUEST_TIMEOUT"
	requestsPerSecondVar = "REQUESTS_PER_SECOND"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetEnv() string {
	env := strings.TrimSpace(e.v.GetString(envVar))
	if env == "" {
		return "DEV"
	}
	return strings.ToUpper(env)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.v.GetString(logLevelVar))
}

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend base URL without a trailing slash
// (e.g. "https://trails.example.com/api"). Endpoint paths are appended to it.
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.v.GetString(apiBaseURLVar), "/")
}

func (a API) GetRequestTimeout() time.Duration {
	d := a.v.GetDuration(requestTimeoutVar)
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}

// GetRequestsPerSecond returns the outbound auth request budget; 0 disables limiting.
func (a API) GetRequestsPerSecond() float64 {
	rps := a.v.GetFloat64(requestsPerSecondVar)
	if rps < 0 {
		return 0
	}
	return rps
}
