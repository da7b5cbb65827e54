package config

import (
	"errors"
	"strings"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/otel"
	"github.com/adrianliechti/vectorgate/pkg/provider"
	"github.com/adrianliechti/vectorgate/pkg/provider/cohere"
	"github.com/adrianliechti/vectorgate/pkg/reranker"
)

type rerankerConfig struct {
	Type string `yaml:"type" validate:"required,oneof=cohere"`

	URL   string `yaml:"url" validate:"omitempty,url"`
	Token string `yaml:"token" validate:"required"`

	Model string `yaml:"model"`
	TopN  int    `yaml:"top_n" validate:"gte=0"`
}

func (c *Config) registerReranker(f *configFile) error {
	if f.Reranker == nil {
		return nil
	}

	ranker, err := createRanker(*f.Reranker)

	if err != nil {
		return err
	}

	var options []reranker.Option

	if f.Reranker.TopN > 0 {
		options = append(options, reranker.WithTopN(f.Reranker.TopN))
	}

	r, err := reranker.New(otel.NewReranker(f.Reranker.Type, f.Reranker.Model, ranker), options...)

	if err != nil {
		return err
	}

	c.reranker = r

	return nil
}

func (c *Config) Reranker() (*reranker.Reranker, error) {
	if c.reranker == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("no reranker configured"))
	}

	return c.reranker, nil
}

func createRanker(cfg rerankerConfig) (provider.Reranker, error) {
	switch strings.ToLower(cfg.Type) {
	case "cohere":
		var options []cohere.Option

		if cfg.URL != "" {
			options = append(options, cohere.WithURL(cfg.URL))
		}

		if cfg.Token != "" {
			options = append(options, cohere.WithToken(cfg.Token))
		}

		return cohere.NewReranker(cfg.Model, options...)

	default:
		return nil, errors.New("invalid reranker type: " + cfg.Type)
	}
}
