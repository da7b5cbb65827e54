package qdrant

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	"google.golang.org/grpc"
)

const (
	DefaultPort = 6334

	restPort = 6333
)

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithPort(port int) Option {
	return func(c *Client) {
		c.port = port
	}
}

func WithTLS(enabled bool) Option {
	return func(c *Client) {
		c.tls = &enabled
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

func WithDialOptions(options ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, options...)
	}
}

type endpoint struct {
	host string
	port int
	tls  bool
}

// parseEndpoint accepts a bare host, host:port or a URL. REST URLs on 6333
// are mapped to the gRPC port.
func parseEndpoint(val string) (*endpoint, error) {
	val = strings.TrimSpace(val)

	if val == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("qdrant: invalid host"))
	}

	if !strings.Contains(val, "://") {
		val = "grpc://" + val
	}

	u, err := url.Parse(val)

	if err != nil {
		return nil, errors.Join(index.ErrConfiguration, err)
	}

	e := &endpoint{
		host: u.Hostname(),
		port: DefaultPort,
	}

	if e.host == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("qdrant: invalid host"))
	}

	switch u.Scheme {
	case "https":
		e.tls = true
	case "http":
		e.tls = false
	default:
		e.tls = !isLocal(e.host)
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)

		if err != nil {
			return nil, errors.Join(index.ErrConfiguration, err)
		}

		if port != restPort {
			e.port = port
		}
	}

	return e, nil
}

func isLocal(host string) bool {
	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}
