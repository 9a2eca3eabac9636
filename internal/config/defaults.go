package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultCatalogTimeout    = 10 * time.Second
	DefaultCatalogRetries    = 3
	DefaultReconnectInterval = 3 * time.Second
	DefaultMaxAttempts       = 5
	DefaultWriteTimeout      = 5 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultBufferSize        = 256
	DefaultRefreshInterval   = 30 * time.Second
	DefaultRefreshGrace      = 1500 * time.Millisecond
	DefaultTickInterval      = 1 * time.Second
	DefaultCartTTL           = 24 * time.Hour
	DefaultJournalBatchSize  = 500
	DefaultJournalFlush      = 2 * time.Second
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 5
	DefaultMinConns          = 1
	DefaultHealthPort        = 8080
	DefaultHealthPath        = "/health"
)

func (c *EngineConfig) applyDefaults() {
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = DefaultCatalogTimeout
	}
	if c.Catalog.MaxRetries == 0 {
		c.Catalog.MaxRetries = DefaultCatalogRetries
	}

	if c.Realtime.ReconnectInterval == 0 {
		c.Realtime.ReconnectInterval = DefaultReconnectInterval
	}
	if c.Realtime.MaxAttempts == 0 {
		c.Realtime.MaxAttempts = DefaultMaxAttempts
	}
	if c.Realtime.WriteTimeout == 0 {
		c.Realtime.WriteTimeout = DefaultWriteTimeout
	}
	if c.Realtime.HandshakeTimeout == 0 {
		c.Realtime.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Realtime.BufferSize == 0 {
		c.Realtime.BufferSize = DefaultBufferSize
	}

	if c.Sales.RefreshInterval == 0 {
		c.Sales.RefreshInterval = DefaultRefreshInterval
	}
	if c.Sales.RefreshGrace == 0 {
		c.Sales.RefreshGrace = DefaultRefreshGrace
	}
	if c.Sales.TickInterval == 0 {
		c.Sales.TickInterval = DefaultTickInterval
	}

	if c.Cart.TTL == 0 {
		c.Cart.TTL = DefaultCartTTL
	}

	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultJournalBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultJournalFlush
	}
	applyDBDefaults(&c.Journal.Database)

	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
