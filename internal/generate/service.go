package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/querysmith/querysmith/internal/nl2sql"
	"github.com/querysmith/querysmith/internal/observability"
	"github.com/querysmith/querysmith/internal/schema"
)

// SchemaSource supplies the bounded schema summary used as prompt
// context.
type SchemaSource interface {
	Summarize(ctx context.Context) schema.Summary
}

// Service orchestrates a generation request: summarize the catalog,
// hand the summary and question to the translator, return the SQL.
type Service struct {
	schema     SchemaSource
	translator nl2sql.Translator
	dialect    string
	logger     *slog.Logger
}

func NewService(source SchemaSource, translator nl2sql.Translator, dialect string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{schema: source, translator: translator, dialect: dialect, logger: logger}
}

func (s *Service) GenerateSQL(ctx context.Context, naturalLanguage string) (nl2sql.Result, error) {
	if strings.TrimSpace(naturalLanguage) == "" {
		return nl2sql.Result{}, fmt.Errorf("query must not be empty")
	}

	start := time.Now()
	summary := s.schema.Summarize(ctx)
	result, err := s.translator.Translate(ctx, nl2sql.Request{
		NaturalLanguage: naturalLanguage,
		Schema:          summary,
		Dialect:         s.dialect,
	})
	observability.ObserveTranslate(time.Since(start), err == nil)
	if err != nil {
		return nl2sql.Result{}, fmt.Errorf("translate query: %w", err)
	}

	s.logger.Info("sql generated",
		"trace_id", observability.TraceIDFromContext(ctx),
		"model", result.Model,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
