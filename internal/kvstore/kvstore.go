// Package kvstore provides the durable key-value slots path data is cached in
package kvstore

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Store is a string key-value store. Get reports whether the key exists.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Config selects and configures a backend
type Config struct {
	Type string `json:"type" mapstructure:"type"`
	Path string `json:"path" mapstructure:"path"`
}

// New creates a store backend based on configuration
func New(cfg Config, log zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
