package backend

import (
	"encoding/base64"
	"errors"
	"fmt"

	"budgetwise/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	var key []byte
	if appConfig.StorageEncryptionKey != "" {
		decoded, err := base64.StdEncoding.DecodeString(appConfig.StorageEncryptionKey)
		if err != nil {
			return Config{}, fmt.Errorf("decode storage encryption key: %w", err)
		}
		key = decoded
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		RedisURL:     appConfig.RedisURL,
		DatabaseURL:  appConfig.DatabaseURL,

		Prefix:        appConfig.StoragePrefix,
		Codec:         appConfig.StorageCodec,
		EncryptionKey: key,
		CacheSize:     appConfig.CacheSize,
		CacheTTL:      appConfig.CacheTTL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisURL == "" {
			return errors.New("Redis URL is required for redis backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	case MemoryBackend:
		// nothing to check
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend, RedisBackend, PostgresBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
