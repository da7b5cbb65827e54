package openai

import (
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3/option"
)

type Config struct {
	url string

	token string
	model string

	dimensions int
	native     int

	client *http.Client
}

type Option func(*Config)

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

func WithDimensions(dimensions int) Option {
	return func(c *Config) {
		c.dimensions = dimensions
	}
}

// WithNativeDimensions sets the output size the model produces without a
// dimensions parameter, for models missing from ModelDimensions.
func WithNativeDimensions(dimensions int) Option {
	return func(c *Config) {
		c.native = dimensions
	}
}

func (c *Config) Options() []option.RequestOption {
	if c.url == "" {
		c.url = "https://api.openai.com/v1/"
	}

	if c.client == nil {
		c.client = http.DefaultClient
	}

	c.url = strings.TrimRight(c.url, "/") + "/"

	if strings.Contains(c.url, "openai.azure.com") || strings.Contains(c.url, "cognitiveservices.azure.com") {
		options := []option.RequestOption{
			option.WithBaseURL(c.url),
			option.WithHTTPClient(c.client),

			option.WithQueryAdd("api-version", "preview"),
		}

		if c.token != "" {
			options = append(options, option.WithHeader("Api-Key", c.token))
		}

		return options
	}

	options := []option.RequestOption{
		option.WithBaseURL(c.url),
		option.WithHTTPClient(c.client),
	}

	if c.token != "" {
		options = append(options, option.WithAPIKey(c.token))
	}

	return options
}
