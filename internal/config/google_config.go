package config

import "github.com/spf13/viper"

const (
	googleClientIDVar     = "GOOGLE_CLIENT_ID"
	googleClientSecretVar = "GOOGLE_CLIENT_SECRET"
	googleRedirectURIVar  = "GOOGLE_REDIRECT_URI"
	googleIssuerVar       = "GOOGLE_ISSUER"
)

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURI() string
	GetGoogleIssuer() string
}

type Google struct {
	v *viper.Viper
}

var _ GoogleConfig = Google{}

func (g Google) GetGoogleClientID() string {
	return g.v.GetString(googleClientIDVar)
}

func (g Google) GetGoogleClientSecret() string {
	return g.v.GetString(googleClientSecretVar)
}

func (g Google) GetGoogleRedirectURI() string {
	return g.v.GetString(googleRedirectURIVar)
}

func (g Google) GetGoogleIssuer() string {
	return g.v.GetString(googleIssuerVar)
}
