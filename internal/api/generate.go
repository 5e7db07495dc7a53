package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/querysmith/querysmith/internal/nl2sql"
)

type generateRequest struct {
	Query string `json:"query"`
}

type generateResponse struct {
	SQLQuery string `json:"sql_query"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func handleGenerateSQL(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Generator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "GENERATE_NOT_CONFIGURED", "sql generation is not configured", false, nil)
		return
	}

	var request generateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid generate request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		return
	}

	timeout := deps.GenerateTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	result, err := deps.Generator.GenerateSQL(ctx, request.Query)
	if err != nil {
		var exhausted *nl2sql.ExhaustionError
		if errors.As(err, &exhausted) {
			writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_EXHAUSTED", exhausted.Error(), true, map[string]any{
				"candidates": exhausted.Candidates,
				"attempts":   exhausted.Attempts,
			})
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", err.Error(), true, nil)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		SQLQuery: result.SQL,
		Provider: result.Provider,
		Model:    result.Model,
	})
}
