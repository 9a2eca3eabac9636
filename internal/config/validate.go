package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *EngineConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url is required")
	}

	if c.Realtime.Host == "" {
		return errors.New("realtime.host is required")
	}
	if c.Realtime.MaxAttempts < 1 {
		return errors.New("realtime.max_attempts must be >= 1")
	}
	if c.Realtime.ReconnectInterval <= 0 {
		return errors.New("realtime.reconnect_interval must be positive")
	}

	if c.Sales.RefreshInterval <= 0 {
		return errors.New("sales.refresh_interval must be positive")
	}
	if c.Sales.TickInterval <= 0 {
		return errors.New("sales.tick_interval must be positive")
	}

	// Journal is optional; validate only when a host is configured.
	if c.Journal.Database.Host != "" {
		if err := c.Journal.Database.validate("journal.database"); err != nil {
			return err
		}
		if c.Journal.BatchSize < 1 {
			return errors.New("journal.batch_size must be >= 1")
		}
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
