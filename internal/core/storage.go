package core

import (
	"fmt"
	"os"

	"lexicore/internal/graph"
	"lexicore/internal/persistence/postgres"
	"lexicore/internal/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenProjectStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	LEXICORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	LEXICORE_SQLITE_PATH: path to sqlite file (default ./lexicore.db)
//	LEXICORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenProjectStore() (ProjectStore, error) {
	driver := os.Getenv("LEXICORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return graph.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("LEXICORE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case StoragePostgres:
		dsn := os.Getenv("LEXICORE_POSTGRES_DSN")
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
