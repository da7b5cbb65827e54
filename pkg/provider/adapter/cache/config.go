package cache

type Config struct {
	size int
}

type Option func(*Config)

func WithSize(size int) Option {
	return func(c *Config) {
		c.size = size
	}
}
