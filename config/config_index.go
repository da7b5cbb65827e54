package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/adrianliechti/vectorgate/pkg/factory"
	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/limiter"
	"github.com/adrianliechti/vectorgate/pkg/otel"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	lru "github.com/hashicorp/golang-lru/v2"
)

const indexCacheSize = 64

type limitsConfig struct {
	Rate        *int `yaml:"rate" validate:"omitempty,gt=0"`
	Concurrency int  `yaml:"concurrency" validate:"gte=0"`
}

type indexConfig struct {
	Kind string `yaml:"kind" validate:"required,oneof=pinecone qdrant weaviate astra memory"`
	Name string `yaml:"name" validate:"required"`

	Encoder string `yaml:"encoder"`

	Config map[string]string `yaml:"config"`
}

type preset struct {
	name    string
	encoder string

	credentials index.Credentials
}

func (c *Config) registerLimits(f *configFile) error {
	if f.Limits == nil {
		return nil
	}

	c.limiter = createLimiter(f.Limits.Rate)
	c.concurrency = f.Limits.Concurrency

	return nil
}

func (c *Config) registerIndexes(f *configFile) error {
	c.presets = make(map[string]preset)

	for id, i := range f.Indexes {
		kind, err := index.ParseKind(i.Kind)

		if err != nil {
			return err
		}

		if _, err := c.Encoder(i.Encoder); err != nil {
			return err
		}

		c.presets[id] = preset{
			name:    i.Name,
			encoder: i.Encoder,

			credentials: index.Credentials{
				Kind:   kind,
				Config: i.Config,
			},
		}
	}

	cache, err := lru.NewWithEvict(indexCacheSize, func(key string, e *cachedIndex) {
		e.evict()
	})

	if err != nil {
		return err
	}

	c.indexes = cache

	return nil
}

// Preset resolves a named index from the configuration file.
func (c *Config) Preset(id string) (name string, encoder string, creds index.Credentials, err error) {
	p, ok := c.presets[id]

	if !ok {
		return "", "", index.Credentials{}, errors.Join(index.ErrConfiguration, errors.New("index preset not found: "+id))
	}

	return p.name, p.encoder, p.credentials, nil
}

// Index returns a provider for the backend, building it through the factory
// on first use. Built providers are reused per backend, name and encoder;
// concurrent first calls share one build. Callers must call release once
// done with the provider. An evicted provider is closed after its last
// release.
func (c *Config) Index(ctx context.Context, name string, creds index.Credentials, encoderID string) (index.Provider, func(), error) {
	encoder, err := c.Encoder(encoderID)

	if err != nil {
		return nil, nil, err
	}

	if c.indexes == nil {
		p, err := c.createIndex(ctx, name, creds, encoder)

		if err != nil {
			return nil, nil, err
		}

		return p, func() {}, nil
	}

	key := cacheKey(name, creds, encoderID)

	if e, ok := c.acquireIndex(key); ok {
		return e.Provider, e.release, nil
	}

	// the build outlives a single caller, its cancellation must not fail the others
	buildCtx := context.WithoutCancel(ctx)

	v, err, _ := c.opening.Do(key, func() (any, error) {
		if e, ok := c.peekIndex(key); ok {
			return e, nil
		}

		p, err := c.createIndex(buildCtx, name, creds, encoder)

		if err != nil {
			return nil, err
		}

		return c.storeIndex(key, p), nil
	})

	if err != nil {
		return nil, nil, err
	}

	e := v.(*cachedIndex)

	// the entry may have been evicted between the build and this point
	if !c.retainIndex(e) {
		return c.Index(ctx, name, creds, encoderID)
	}

	return e.Provider, e.release, nil
}

// Close evicts every cached provider. Providers still in use are closed on
// their last release.
func (c *Config) Close() error {
	if c.indexes == nil {
		return nil
	}

	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	c.indexes.Purge()

	return nil
}

func (c *Config) acquireIndex(key string) (*cachedIndex, bool) {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	e, ok := c.indexes.Get(key)

	if !ok {
		return nil, false
	}

	e.refs++

	return e, true
}

func (c *Config) peekIndex(key string) (*cachedIndex, bool) {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	return c.indexes.Peek(key)
}

func (c *Config) storeIndex(key string, p index.Provider) *cachedIndex {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	if e, ok := c.indexes.Peek(key); ok {
		closeIndex(p)
		return e
	}

	e := &cachedIndex{
		Provider: p,
		mu:       &c.indexMu,
	}

	c.indexes.Add(key, e)

	return e
}

func (c *Config) retainIndex(e *cachedIndex) bool {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	if e.evicted {
		return false
	}

	e.refs++

	return true
}

func (c *Config) createIndex(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder) (index.Provider, error) {
	slog.Info("opening index", "kind", creds.Kind, "index", name)

	open := c.open

	if open == nil {
		open = func(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder) (index.Provider, error) {
			return factory.New(ctx, name, creds, encoder, factory.WithClient(c.client))
		}
	}

	p, err := open(ctx, name, creds, encoder)

	if err != nil {
		return nil, err
	}

	// the cache owns the underlying client, decorators must keep Close reachable
	if closer, ok := p.(io.Closer); ok {
		return &closable{Provider: decorate(c, creds.Kind, name, p), Closer: closer}, nil
	}

	return decorate(c, creds.Kind, name, p), nil
}

func decorate(c *Config, kind index.Kind, name string, p index.Provider) index.Provider {
	if c.limiter != nil || c.concurrency > 0 {
		p = limiter.NewIndex(c.limiter, c.concurrency, p)
	}

	return otel.NewIndex(kind, name, p)
}

type closable struct {
	index.Provider
	io.Closer
}

// cachedIndex counts the callers holding a provider. The counters are
// guarded by the config index mutex, which also guards the cache, so an
// entry cannot be acquired after its eviction.
type cachedIndex struct {
	index.Provider

	mu *sync.Mutex

	refs    int
	evicted bool
	closed  bool
}

func (e *cachedIndex) release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.refs--

	if e.refs <= 0 && e.evicted {
		e.close()
	}
}

// evict runs from the cache callback while the index mutex is held.
func (e *cachedIndex) evict() {
	e.evicted = true

	if e.refs <= 0 {
		e.close()
	}
}

func (e *cachedIndex) close() {
	if e.closed {
		return
	}

	e.closed = true

	closeIndex(e.Provider)
}

func closeIndex(p index.Provider) {
	closer, ok := p.(io.Closer)

	if !ok {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("failed to close index", "error", err)
	}
}

func cacheKey(name string, creds index.Credentials, encoder string) string {
	h := sha256.New()

	io.WriteString(h, string(creds.Kind)+"\x00"+name+"\x00"+encoder)

	for _, k := range slices.Sorted(maps.Keys(creds.Config)) {
		io.WriteString(h, "\x00"+k+"="+strings.TrimSpace(creds.Config[k]))
	}

	return hex.EncodeToString(h.Sum(nil))
}
