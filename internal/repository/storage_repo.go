package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/linnington/esheets-assets/internal/database"
	"github.com/linnington/esheets-assets/internal/storage"
)

// StorageRepository keeps one origin's local-storage items in the
// local_storage table. It satisfies storage.Storage and storage.BatchSetter.
type StorageRepository struct {
	db     *database.DB
	origin string
}

// NewStorageRepository creates a repository scoped to origin
func NewStorageRepository(db *database.DB, origin string) *StorageRepository {
	return &StorageRepository{db: db, origin: origin}
}

// GetItem retrieves a stored value by key
func (r *StorageRepository) GetItem(key string) (string, bool, error) {
	var value string
	query := `SELECT item_value FROM local_storage WHERE origin = ? AND item_key = ?`
	err := r.db.QueryRow(query, r.origin, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return value, true, nil
}

// SetItem updates or inserts a value
func (r *StorageRepository) SetItem(key, value string) error {
	if err := setItem(r.db, r.origin, key, value); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

// SetItems writes every item in one transaction
func (r *StorageRepository) SetItems(items map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	for key, value := range items {
		if err := setItem(tx, r.origin, key, value); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

// Keys lists the keys stored for this origin
func (r *StorageRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT item_key FROM local_storage WHERE origin = ? ORDER BY item_key`, r.origin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func setItem(db database.DBTX, origin, key, value string) error {
	_, err := db.Exec(db.GetDialect().UpsertStorageItem(), origin, key, value)
	return err
}
