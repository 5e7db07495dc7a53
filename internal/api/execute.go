package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// executeRequest accepts the statement under either field name.
// "query" is the historical contract shared with /generate_sql/;
// "sql_query" matches the field the generation response returns, so
// clients can echo it back unchanged.
type executeRequest struct {
	Query    string `json:"query"`
	SQLQuery string `json:"sql_query"`
}

func (r executeRequest) statement() string {
	if strings.TrimSpace(r.SQLQuery) != "" {
		return r.SQLQuery
	}
	return r.Query
}

func handleExecuteSQL(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Executor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXECUTE_NOT_CONFIGURED", "sql execution is not configured", false, nil)
		return
	}

	var request executeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid execute request body", false, map[string]any{"details": err.Error()})
		return
	}
	sqlText := request.statement()
	if strings.TrimSpace(sqlText) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "query is required"})
		return
	}

	timeout := deps.ExecuteTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	result, err := deps.Executor.Execute(ctx, sqlText)
	if err != nil {
		// Execution failures carry only an error field, never a
		// results field, so clients can branch on presence.
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": result.Rows,
		"columns": result.Columns,
	})
}
