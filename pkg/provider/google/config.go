package google

import (
	"context"
	"net/http"

	"google.golang.org/genai"
)

type Config struct {
	url string

	token string
	model string

	dimensions int

	client *http.Client
}

type Option func(*Config)

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

// WithURL overrides the Gemini API endpoint.
func WithURL(url string) Option {
	return func(c *Config) {
		c.url = url
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

func WithDimensions(dimensions int) Option {
	return func(c *Config) {
		c.dimensions = dimensions
	}
}

func (c *Config) newClient(ctx context.Context) (*genai.Client, error) {
	config := &genai.ClientConfig{
		APIKey:  c.token,
		Backend: genai.BackendGeminiAPI,

		HTTPClient: c.client,

		HTTPOptions: genai.HTTPOptions{
			BaseURL: c.url,
		},
	}

	return genai.NewClient(ctx, config)
}
