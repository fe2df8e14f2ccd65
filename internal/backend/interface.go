package backend

import (
	"context"
	"time"

	"budgetwise/internal/amqp"
	"budgetwise/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the optional change publisher and a
// cleanup function releasing both.
type BackendResult struct {
	Store *storage.Store
	// Events is nil when AMQP is not configured or unreachable.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Redis specific
	RedisURL string

	// Postgres specific
	DatabaseURL string

	// Storage facade
	Prefix        string
	Codec         string
	EncryptionKey []byte
	CacheSize     int
	CacheTTL      time.Duration

	// Change events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	MemoryBackend   BackendType = "memory"
	RedisBackend    BackendType = "redis"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend, RedisBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
