package database

import (
	"fmt"
)

// RunMigrations executes the dialect's schema migrations that have not run yet
// and returns the names of those it applied
func (db *DB) RunMigrations() ([]string, error) {
	// Create migrations table if it doesn't exist
	if err := db.createMigrationsTable(); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []string

	for _, migration := range db.Dialect.Migrations() {
		// Check if migration has already been run
		hasRun, err := db.hasMigrationRun(migration.Name)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}

		if hasRun {
			continue
		}

		if _, err := db.Exec(migration.Statement); err != nil {
			return applied, fmt.Errorf("failed to execute migration %s: %w", migration.Name, err)
		}

		// Record migration as completed
		if err := db.recordMigration(migration.Name); err != nil {
			return applied, fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
		}

		applied = append(applied, migration.Name)
	}

	return applied, nil
}

// createMigrationsTable creates the table to track completed migrations
func (db *DB) createMigrationsTable() error {
	_, err := db.Exec(db.Dialect.CreateMigrationsTableQuery())
	return err
}

// hasMigrationRun checks if a migration has already been executed
func (db *DB) hasMigrationRun(name string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE filename = ?"
	err := db.QueryRow(query, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration marks a migration as completed
func (db *DB) recordMigration(name string) error {
	query := "INSERT INTO migrations (filename) VALUES (?)"
	_, err := db.Exec(query, name)
	return err
}
