package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect hides the differences between the supported SQL servers
type Dialect interface {
	// Name identifies the dialect in backups and logs
	Name() string

	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders to the driver's syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId is false when new ids must come from RETURNING
	SupportsLastInsertId() bool

	// ConfigureConnection tunes the pool and session settings
	ConfigureConnection(db *sql.DB) error

	// UpsertQuery renders u with ? placeholders
	UpsertQuery(u Upsert) string

	// MigrationsSubdir names the migrations folder for the dialect
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	Path string // SQLite file
	URL  string // PostgreSQL/MySQL connection URL
}

// Upsert is an insert that updates the existing row when Keys collide.
// Columns are bound in order; Replace columns take the inserted value and
// Increment columns add one to the stored value.
type Upsert struct {
	Table     string
	Keys      []string
	Columns   []string
	Replace   []string
	Increment []string
}

func (u Upsert) insert() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(u.Columns)), ", ")
	return "INSERT INTO " + u.Table + " (" + strings.Join(u.Columns, ", ") + ") VALUES (" + marks + ")"
}

// assignments renders the SET list; inserted(col) names the proposed value
func (u Upsert) assignments(inserted func(col string) string) []string {
	set := make([]string, 0, len(u.Replace)+len(u.Increment))
	for _, c := range u.Replace {
		set = append(set, c+" = "+inserted(c))
	}
	for _, c := range u.Increment {
		set = append(set, c+" = "+u.Table+"."+c+" + 1")
	}
	return set
}

// onConflict is the SQLite and PostgreSQL form
func onConflict(u Upsert) string {
	q := u.insert() + " ON CONFLICT (" + strings.Join(u.Keys, ", ") + ")"
	set := u.assignments(func(c string) string { return "excluded." + c })
	if len(set) == 0 {
		return q + " DO NOTHING"
	}
	return q + " DO UPDATE SET " + strings.Join(set, ", ")
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
// Queries in this module never carry a literal ? inside a string.
func rewritePlaceholdersToNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
