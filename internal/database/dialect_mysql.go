package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string {
	return "mysql"
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) Migrations() []Migration {
	return []Migration{
		{
			Name: "001_local_storage",
			Statement: `
				CREATE TABLE IF NOT EXISTS local_storage (
					origin VARCHAR(191) NOT NULL,
					item_key VARCHAR(191) NOT NULL,
					item_value LONGTEXT NOT NULL,
					updated_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6),
					PRIMARY KEY (origin, item_key)
				);
			`,
		},
	}
}

func (d *MySQLDialect) UpsertStorageItem() string {
	return "INSERT INTO local_storage (origin, item_key, item_value, updated_at) " +
		"VALUES (?, ?, ?, CURRENT_TIMESTAMP(6)) " +
		"ON DUPLICATE KEY UPDATE item_value = VALUES(item_value), updated_at = CURRENT_TIMESTAMP(6)"
}
