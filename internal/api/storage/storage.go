package storage

import (
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/TekupDK/tekup-sub000/shared/postgresql"
)

// Storage handles all database operations for the API service. Every
// query on tenant-owned entities is scoped by tenant id.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a Storage over the shared PostgreSQL client.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// NewStorageWithDB creates a Storage directly over a sqlx handle; used
// by tests with sqlmock.
func NewStorageWithDB(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}
