package astra

import (
	"net/http"

	"github.com/adrianliechti/vectorgate/pkg/provider"
)

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithKeyspace(keyspace string) Option {
	return func(c *Client) {
		c.keyspace = keyspace
	}
}

func WithEmbedder(embedder provider.Embedder) Option {
	return func(c *Client) {
		c.embedder = embedder
	}
}

func WithDimensions(dimensions int) Option {
	return func(c *Client) {
		c.dimensions = dimensions
	}
}

func WithBatchSize(size int) Option {
	return func(c *Client) {
		c.batchSize = size
	}
}
