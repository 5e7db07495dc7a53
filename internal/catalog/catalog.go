package catalog

import "context"

// Provider exposes read-only access to database metadata (databases,
// tables, columns) as distinct from row data. Implementations must not
// mutate anything.
type Provider interface {
	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, database string) ([]string, error)
	ListColumns(ctx context.Context, database, table string) ([]string, error)
}
