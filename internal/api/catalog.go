package api

import "net/http"

func handleListDatabases(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CATALOG_NOT_CONFIGURED", "catalog is not configured", false, nil)
		return
	}
	databases, err := deps.Catalog.ListDatabases(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_ERROR", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"databases": databases})
}

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CATALOG_NOT_CONFIGURED", "catalog is not configured", false, nil)
		return
	}
	database := r.PathValue("database")
	tables, err := deps.Catalog.ListTables(r.Context(), database)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_ERROR", err.Error(), true, map[string]any{"database": database})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"database": database, "tables": tables})
}

func handleListColumns(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CATALOG_NOT_CONFIGURED", "catalog is not configured", false, nil)
		return
	}
	database := r.PathValue("database")
	table := r.PathValue("table")
	columns, err := deps.Catalog.ListColumns(r.Context(), database, table)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_ERROR", err.Error(), true, map[string]any{"database": database, "table": table})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"database": database, "table": table, "columns": columns})
}
