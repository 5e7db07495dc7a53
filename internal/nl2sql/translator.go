package nl2sql

import (
	"context"

	"github.com/querysmith/querysmith/internal/schema"
)

type Request struct {
	NaturalLanguage string
	Schema          schema.Summary
	Dialect         string
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
