package services

import (
	"fmt"

	"fleet-svc/app/clients"
	"fleet-svc/storage/memstore"
	"fleet-svc/storage/postgres"
)

// StorageFactory creates storage backends
type StorageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() *StorageFactory {
	return &StorageFactory{}
}

// Create builds the storage backend for the configured driver. The memory
// driver keeps everything in-process and is meant for local development.
func (f *StorageFactory) Create(driver, connString string) (clients.Store, error) {
	switch driver {
	case "memory":
		return memstore.NewStore(), nil
	case "", "postgres":
		store, err := postgres.NewStore(connString)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
