package config

import (
	"context"
	"errors"
	"strings"

	"github.com/adrianliechti/vectorgate/pkg/auth"
	"github.com/adrianliechti/vectorgate/pkg/auth/oidc"
	"github.com/adrianliechti/vectorgate/pkg/auth/static"
)

type authorizerConfig struct {
	Type string `yaml:"type" validate:"required,oneof=static oidc"`

	Token string `yaml:"token" validate:"required_if=Type static"`

	Issuer   string `yaml:"issuer" validate:"required_if=Type oidc,omitempty,url"`
	Audience string `yaml:"audience"`
}

func (c *Config) registerAuthorizers(f *configFile) error {
	for _, a := range f.Authorizers {
		authorizer, err := createAuthorizer(a)

		if err != nil {
			return err
		}

		c.Authorizers = append(c.Authorizers, authorizer)
	}

	return nil
}

func createAuthorizer(cfg authorizerConfig) (auth.Provider, error) {
	switch strings.ToLower(cfg.Type) {
	case "static":
		return static.New(cfg.Token)

	case "oidc":
		return oidc.New(context.Background(), cfg.Issuer, cfg.Audience)

	default:
		return nil, errors.New("invalid authorizer type: " + cfg.Type)
	}
}
