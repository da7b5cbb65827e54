package config

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/adrianliechti/vectorgate/pkg/auth"
	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"
	"github.com/adrianliechti/vectorgate/pkg/reranker"

	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address string

	Authorizers []auth.Provider

	client *http.Client

	encoders map[string]provider.Encoder
	reranker *reranker.Reranker

	presets map[string]preset

	limiter     *rate.Limiter
	concurrency int

	open func(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder) (index.Provider, error)

	indexMu sync.Mutex
	indexes *lru.Cache[string, *cachedIndex]
	opening singleflight.Group
}

func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	return parse(data)
}

func parse(data []byte) (*Config, error) {
	file, err := parseFile(data)

	if err != nil {
		return nil, err
	}

	c := &Config{
		Address: ":8080",

		client: http.DefaultClient,
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if err := c.registerAuthorizers(file); err != nil {
		return nil, err
	}

	if err := c.registerEncoders(file); err != nil {
		return nil, err
	}

	if err := c.registerReranker(file); err != nil {
		return nil, err
	}

	if err := c.registerLimits(file); err != nil {
		return nil, err
	}

	if err := c.registerIndexes(file); err != nil {
		return nil, err
	}

	return c, nil
}

type configFile struct {
	Address string `yaml:"address"`

	Authorizers []authorizerConfig `yaml:"authorizers" validate:"dive"`

	Encoders map[string]encoderConfig `yaml:"encoders" validate:"dive"`
	Reranker *rerankerConfig          `yaml:"reranker"`

	Limits *limitsConfig `yaml:"limits"`

	Indexes map[string]indexConfig `yaml:"indexes" validate:"dive"`
}

func parseFile(data []byte) (*configFile, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(&config); err != nil {
		return nil, errors.Join(index.ErrConfiguration, err)
	}

	return &config, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil || *limit <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}
