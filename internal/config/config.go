package config

import "time"

// EngineConfig is the root configuration for a sale sync engine instance.
type EngineConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Sales    SalesConfig    `yaml:"sales"`
	Cart     CartConfig     `yaml:"cart"`
	Journal  JournalConfig  `yaml:"journal"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this engine instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// CatalogConfig holds catalog/cart REST collaborator settings.
type CatalogConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// RealtimeConfig holds persistent-channel settings shared by all topics.
type RealtimeConfig struct {
	Host              string        `yaml:"host"`
	Secure            bool          `yaml:"secure"` // wss when true
	Token             string        `yaml:"token"`  // appended as ?token=; empty disables realtime
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	MaxAttempts       int           `yaml:"max_attempts"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	BufferSize        int           `yaml:"buffer_size"`
}

// SalesConfig holds sale lifecycle store settings.
type SalesConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"` // periodic snapshot replace
	RefreshGrace    time.Duration `yaml:"refresh_grace"`    // delay before timer-exhaustion fallback fetch
	TickInterval    time.Duration `yaml:"tick_interval"`    // countdown resolution
}

// CartConfig holds cart persistence settings. Redis is the external
// key-value store the cart is mirrored into; leave Addr empty to keep
// the cart memory-only.
type CartConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// JournalConfig holds push-event journal settings. Disabled unless a
// database host is configured.
type JournalConfig struct {
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
