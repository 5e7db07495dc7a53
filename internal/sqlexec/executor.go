package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/querysmith/querysmith/internal/observability"
)

// Result holds an executed query's rows as column-to-value maps plus
// the column order, which the maps themselves cannot preserve.
type Result struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"results"`
}

type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return Result{}, fmt.Errorf("sql statement must not be empty")
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		observability.ObserveSQLExecution(time.Since(start), false)
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		observability.ObserveSQLExecution(time.Since(start), false)
		return Result{}, fmt.Errorf("read columns: %w", err)
	}

	result := Result{Columns: columns, Rows: make([]map[string]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			observability.ObserveSQLExecution(time.Since(start), false)
			return Result{}, fmt.Errorf("scan row: %w", err)
		}

		record := make(map[string]any, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		observability.ObserveSQLExecution(time.Since(start), false)
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	observability.ObserveSQLExecution(time.Since(start), true)
	return result, nil
}

// normalizeValue converts driver byte slices to strings so JSON
// encoding does not base64 them.
func normalizeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
