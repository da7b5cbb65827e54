package pinecone

import (
	"net/http"

	"github.com/adrianliechti/vectorgate/pkg/provider"
)

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.params.RestClient = client
	}
}

// WithURL overrides the control plane endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		c.params.Host = url
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.params.ApiKey = token
	}
}

// WithConnection replaces the gRPC data plane connection opened from the
// index host.
func WithConnection(conn Connection) Option {
	return func(c *Client) {
		c.conn = conn
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

func WithNamespace(namespace string) Option {
	return func(c *Client) {
		c.namespace = namespace
	}
}

func WithServerless(cloud, region string) Option {
	return func(c *Client) {
		if cloud != "" {
			c.cloud = cloud
		}

		if region != "" {
			c.region = region
		}
	}
}

func WithBatchSize(size int) Option {
	return func(c *Client) {
		c.batchSize = size
	}
}

func WithDeleteLimit(limit int) Option {
	return func(c *Client) {
		c.deleteLimit = limit
	}
}
