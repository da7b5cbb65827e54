package mistral

import (
	"net/http"

	"github.com/adrianliechti/vectorgate/pkg/provider/openai"
)

type Config struct {
	url string

	options []openai.Option
}

type Option func(*Config)

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.options = append(c.options, openai.WithClient(client))
	}
}

// WithURL overrides the La Plateforme endpoint.
func WithURL(url string) Option {
	return func(c *Config) {
		c.url = url
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.options = append(c.options, openai.WithToken(token))
	}
}

func WithDimensions(dimensions int) Option {
	return func(c *Config) {
		c.options = append(c.options, openai.WithDimensions(dimensions))
	}
}
