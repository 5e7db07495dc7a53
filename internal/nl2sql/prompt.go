package nl2sql

import (
	"fmt"
	"strings"
)

// The instructions are a prompt-engineering contract only; models
// violate them often enough that extraction downstream has to cope
// with fences, prose, and partial statements.
const promptTemplate = `You are an SQL expert. Convert the following natural language query into an optimized %s query.
- Use indexing where applicable.
- Prefer JOINs over subqueries.
- Use GROUP BY for aggregations if needed.
- Avoid SELECT * unless explicitly requested.
- Return ONLY the SQL query (no explanation).

Database Schema (Limited View):
%s

User Query: %s

SQL Query:
`

const systemPrompt = "You are a SQL optimization expert."

func BuildPrompt(req Request) string {
	dialect := strings.TrimSpace(req.Dialect)
	if dialect == "" {
		dialect = "MySQL"
	}

	lines := make([]string, 0, len(req.Schema.Databases))
	for _, db := range req.Schema.Databases {
		for _, table := range db.Tables {
			lines = append(lines, fmt.Sprintf("%s.%s: %s", db.Name, table.Name, strings.Join(table.Columns, ", ")))
		}
	}

	return fmt.Sprintf(promptTemplate, dialect, strings.Join(lines, "\n"), req.NaturalLanguage)
}
