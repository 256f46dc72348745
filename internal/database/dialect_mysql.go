package database

import (
	"database/sql"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect upserts with ON DUPLICATE KEY UPDATE
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect { return &MySQLDialect{} }

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN enables parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(config DialectConfig) string {
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		return config.URL
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["charset"] = "utf8mb4"
	return cfg.FormatDSN()
}

func (d *MySQLDialect) RewriteQuery(query string) string { return query }

func (d *MySQLDialect) SupportsLastInsertId() bool { return true }

func (d *MySQLDialect) UpsertQuery(u Upsert) string {
	set := u.assignments(func(c string) string { return "VALUES(" + c + ")" })
	if len(set) == 0 {
		// no-op assignment keeps the existing row
		set = []string{u.Keys[0] + " = " + u.Keys[0]}
	}
	return u.insert() + " ON DUPLICATE KEY UPDATE " + strings.Join(set, ", ")
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;")
	return err
}

func (d *MySQLDialect) MigrationsSubdir() string { return "mysql" }

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}
