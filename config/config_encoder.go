package config

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/limiter"
	"github.com/adrianliechti/vectorgate/pkg/otel"
	"github.com/adrianliechti/vectorgate/pkg/provider"
	"github.com/adrianliechti/vectorgate/pkg/provider/adapter/cache"
	"github.com/adrianliechti/vectorgate/pkg/provider/google"
	"github.com/adrianliechti/vectorgate/pkg/provider/mistral"
	"github.com/adrianliechti/vectorgate/pkg/provider/openai"
)

type encoderConfig struct {
	Type string `yaml:"type" validate:"required,oneof=openai google mistral"`

	URL   string `yaml:"url" validate:"omitempty,url"`
	Token string `yaml:"token"`

	Model      string `yaml:"model" validate:"required"`
	Dimensions int    `yaml:"dimensions" validate:"gte=0"`

	Cache int  `yaml:"cache" validate:"gte=0"`
	Limit *int `yaml:"limit"`
}

func (c *Config) registerEncoders(f *configFile) error {
	c.encoders = make(map[string]provider.Encoder)

	for _, id := range slices.Sorted(maps.Keys(f.Encoders)) {
		e := f.Encoders[id]

		encoder, err := createEncoder(e)

		if err != nil {
			return err
		}

		if e.Cache > 0 {
			encoder, err = cache.New(encoder, cache.WithSize(e.Cache))

			if err != nil {
				return err
			}
		}

		if e.Limit != nil {
			encoder = limiter.NewEmbedder(createLimiter(e.Limit), 0, encoder)
		}

		encoder = otel.NewEmbedder(e.Type, e.Model, encoder)

		c.RegisterEncoder(id, encoder)
	}

	return nil
}

// RegisterEncoder adds an encoder under id. The first registered encoder
// (in key order when read from a file) also serves requests that name no
// encoder.
func (c *Config) RegisterEncoder(id string, e provider.Encoder) {
	if c.encoders == nil {
		c.encoders = make(map[string]provider.Encoder)
	}

	if _, ok := c.encoders[""]; !ok {
		c.encoders[""] = e
	}

	c.encoders[id] = e
}

func (c *Config) Encoder(id string) (provider.Encoder, error) {
	if e, ok := c.encoders[id]; ok {
		return e, nil
	}

	return nil, errors.Join(index.ErrConfiguration, errors.New("encoder not found: "+id))
}

func createEncoder(cfg encoderConfig) (provider.Encoder, error) {
	switch strings.ToLower(cfg.Type) {
	case "openai":
		return openaiEncoder(cfg)

	case "google":
		return googleEncoder(cfg)

	case "mistral":
		return mistralEncoder(cfg)

	default:
		return nil, errors.New("invalid encoder type: " + cfg.Type)
	}
}

func openaiEncoder(cfg encoderConfig) (provider.Encoder, error) {
	var options []openai.Option

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	if cfg.Dimensions > 0 {
		options = append(options, openai.WithDimensions(cfg.Dimensions))
	}

	return openai.NewEmbedder(cfg.URL, cfg.Model, options...)
}

func googleEncoder(cfg encoderConfig) (provider.Encoder, error) {
	var options []google.Option

	if cfg.URL != "" {
		options = append(options, google.WithURL(cfg.URL))
	}

	if cfg.Token != "" {
		options = append(options, google.WithToken(cfg.Token))
	}

	if cfg.Dimensions > 0 {
		options = append(options, google.WithDimensions(cfg.Dimensions))
	}

	return google.NewEmbedder(cfg.Model, options...)
}

func mistralEncoder(cfg encoderConfig) (provider.Encoder, error) {
	var options []mistral.Option

	if cfg.URL != "" {
		options = append(options, mistral.WithURL(cfg.URL))
	}

	if cfg.Token != "" {
		options = append(options, mistral.WithToken(cfg.Token))
	}

	if cfg.Dimensions > 0 {
		options = append(options, mistral.WithDimensions(cfg.Dimensions))
	}

	return mistral.NewEmbedder(cfg.Model, options...)
}
