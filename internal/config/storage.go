package config

import (
	"fmt"

	"github.com/Tap30/gameanalytics-go/adapters"
)

// OpenStorage builds the configured KeyValueStore. The returned close
// function is never nil.
func (s StorageConfig) OpenStorage() (adapters.KeyValueStore, func() error, error) {
	noop := func() error { return nil }
	switch s.Type {
	case "", "memory":
		return adapters.NewMemoryStorageAdapter(), noop, nil
	case "file":
		return adapters.NewFileStorageAdapter(s.File.Path), noop, nil
	case "sqlite":
		store, err := adapters.NewSQLiteStorageAdapter(s.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "redis":
		store := adapters.NewRedisStorageAdapter(s.Redis.Addr, s.Redis.Password, s.Redis.DB, s.Redis.Prefix)
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", s.Type)
	}
}
