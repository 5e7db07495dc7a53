package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Repository implements catalog.Provider on top of database/sql with
// per-driver introspection statements. Postgres has no cross-database
// queries on a single connection, so schemas stand in for databases
// there; DuckDB follows the same information_schema route.
type Repository struct {
	db     *sql.DB
	driver string
}

func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, driver: driver}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (r *Repository) ListDatabases(ctx context.Context) ([]string, error) {
	var query string
	switch r.driver {
	case DriverMySQL:
		query = "SHOW DATABASES"
	case DriverPostgres, DriverDuckDB:
		query = `
SELECT schema_name
FROM information_schema.schemata
WHERE schema_name NOT IN ('information_schema', 'pg_catalog')`
	default:
		return nil, fmt.Errorf("unsupported database driver %q", r.driver)
	}
	names, err := r.listStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return names, nil
}

func (r *Repository) ListTables(ctx context.Context, database string) ([]string, error) {
	var query string
	switch r.driver {
	case DriverMySQL:
		query = `
SELECT TABLE_NAME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME`
	case DriverPostgres:
		query = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1
ORDER BY table_name`
	case DriverDuckDB:
		query = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = ?
ORDER BY table_name`
	default:
		return nil, fmt.Errorf("unsupported database driver %q", r.driver)
	}
	names, err := r.listStrings(ctx, query, database)
	if err != nil {
		return nil, fmt.Errorf("list tables for %q: %w", database, err)
	}
	return names, nil
}

func (r *Repository) ListColumns(ctx context.Context, database, table string) ([]string, error) {
	var query string
	switch r.driver {
	case DriverMySQL:
		query = `
SELECT COLUMN_NAME
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`
	case DriverPostgres:
		query = `
SELECT column_name
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`
	case DriverDuckDB:
		query = `
SELECT column_name
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`
	default:
		return nil, fmt.Errorf("unsupported database driver %q", r.driver)
	}
	names, err := r.listStrings(ctx, query, database, table)
	if err != nil {
		return nil, fmt.Errorf("list columns for %q.%q: %w", database, table, err)
	}
	return names, nil
}

func (r *Repository) listStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, strings.TrimSpace(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
