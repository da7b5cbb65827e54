package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/adrianliechti/vectorgate/server/api"
)

type Client struct {
	Queries   QueryService
	Upserts   UpsertService
	Deletions DeletionService
}

func New(url string, opts ...RequestOption) *Client {
	opts = append(opts, WithURL(url))

	return &Client{
		Queries:   NewQueryService(opts...),
		Upserts:   NewUpsertService(opts...),
		Deletions: NewDeletionService(opts...),
	}
}

type RequestConfig struct {
	Client *http.Client

	URL   string
	Token string
}

type RequestOption func(*RequestConfig)

func WithClient(client *http.Client) RequestOption {
	return func(c *RequestConfig) {
		c.Client = client
	}
}

func WithURL(url string) RequestOption {
	return func(c *RequestConfig) {
		c.URL = url
	}
}

func WithToken(token string) RequestOption {
	return func(c *RequestConfig) {
		c.Token = token
	}
}

func newRequestConfig(opts ...RequestOption) *RequestConfig {
	c := &RequestConfig{
		Client: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Target = api.Target
type Backend = api.Backend
type Chunk = api.Chunk

func Ptr[T any](v T) *T {
	return &v
}

func post(ctx context.Context, c *RequestConfig, path string, body, out any) error {
	data, err := json.Marshal(body)

	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.URL, "/")+path, bytes.NewReader(data))

	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result api.ErrorResponse

		if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Error != "" {
			return errors.New(resp.Status + ": " + result.Error)
		}

		return errors.New(resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
