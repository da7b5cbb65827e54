package cohere

import (
	"net/http"

	"github.com/cohere-ai/cohere-go/v2/option"
)

type Config struct {
	url string

	token string
	model string

	client *http.Client
}

type Option func(*Config)

func WithURL(url string) Option {
	return func(c *Config) {
		c.url = url
	}
}

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

func (c *Config) Options() []option.RequestOption {
	if c.client == nil {
		c.client = http.DefaultClient
	}

	options := []option.RequestOption{
		option.WithHTTPClient(c.client),
	}

	if c.url != "" {
		options = append(options, option.WithBaseURL(c.url))
	}

	if c.token != "" {
		options = append(options, option.WithToken(c.token))
	}

	return options
}
