package schema

import (
	"context"
	"log/slog"

	"github.com/querysmith/querysmith/internal/catalog"
	"github.com/querysmith/querysmith/internal/observability"
)

// Summary is a size-bounded view of the catalog, in catalog-returned
// order. It is rebuilt fresh for every generation request.
type Summary struct {
	Databases []DatabaseSchema
}

type DatabaseSchema struct {
	Name   string
	Tables []TableSchema
}

type TableSchema struct {
	Name    string
	Columns []string
}

func (s Summary) TableCount() int {
	count := 0
	for _, db := range s.Databases {
		count += len(db.Tables)
	}
	return count
}

func (s Summary) ColumnCount() int {
	count := 0
	for _, db := range s.Databases {
		for _, table := range db.Tables {
			count += len(table.Columns)
		}
	}
	return count
}

type Limits struct {
	MaxDatabases int
	MaxTables    int
	MaxColumns   int
}

func DefaultLimits() Limits {
	return Limits{MaxDatabases: 5, MaxTables: 5, MaxColumns: 5}
}

type Summarizer struct {
	catalog catalog.Provider
	limits  Limits
	logger  *slog.Logger
}

func NewSummarizer(provider catalog.Provider, limits Limits, logger *slog.Logger) *Summarizer {
	if limits.MaxDatabases <= 0 {
		limits.MaxDatabases = DefaultLimits().MaxDatabases
	}
	if limits.MaxTables <= 0 {
		limits.MaxTables = DefaultLimits().MaxTables
	}
	if limits.MaxColumns <= 0 {
		limits.MaxColumns = DefaultLimits().MaxColumns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{catalog: provider, limits: limits, logger: logger}
}

// Summarize never fails: a catalog error at any level degrades that
// level to an empty list so a partially broken catalog still yields a
// usable prompt.
func (s *Summarizer) Summarize(ctx context.Context) Summary {
	databases, err := s.catalog.ListDatabases(ctx)
	if err != nil {
		s.degraded(ctx, "databases", err)
		databases = nil
	}
	databases = truncate(databases, s.limits.MaxDatabases)

	summary := Summary{Databases: make([]DatabaseSchema, 0, len(databases))}
	for _, database := range databases {
		tables, err := s.catalog.ListTables(ctx, database)
		if err != nil {
			s.degraded(ctx, "tables", err)
			tables = nil
		}
		tables = truncate(tables, s.limits.MaxTables)

		dbSchema := DatabaseSchema{Name: database, Tables: make([]TableSchema, 0, len(tables))}
		for _, table := range tables {
			columns, err := s.catalog.ListColumns(ctx, database, table)
			if err != nil {
				s.degraded(ctx, "columns", err)
				columns = nil
			}
			dbSchema.Tables = append(dbSchema.Tables, TableSchema{
				Name:    table,
				Columns: truncate(columns, s.limits.MaxColumns),
			})
		}
		summary.Databases = append(summary.Databases, dbSchema)
	}

	observability.SetSchemaSummarySize(len(summary.Databases), summary.TableCount(), summary.ColumnCount())
	return summary
}

func (s *Summarizer) degraded(ctx context.Context, level string, err error) {
	observability.IncrementCatalogDegraded(level)
	s.logger.WarnContext(ctx, "catalog lookup degraded to empty",
		slog.String("level", level),
		slog.Any("error", err),
	)
}

func truncate(values []string, limit int) []string {
	if limit > 0 && len(values) > limit {
		return values[:limit]
	}
	return values
}
