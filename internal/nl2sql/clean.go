package nl2sql

import (
	"regexp"
	"strings"
)

var (
	fenceRe     = regexp.MustCompile("(?is)```(?:sql)?\\s*(.*?)\\s*```")
	inlineRe    = regexp.MustCompile("(?s)`(.+?)`")
	statementRe = regexp.MustCompile(`(?is)((?:WITH|SELECT|INSERT|UPDATE|DELETE)\s.*?;)`)
	selectRe    = regexp.MustCompile(`(?im)(SELECT\s.*$)`)
)

// CleanSQL strips markdown wrapping and surrounding prose from model
// output, keeping the first plausible SQL statement. Text with no
// recognizable statement is returned trimmed rather than discarded so
// callers can surface refusals like "I cannot help with that."
func CleanSQL(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = fenceRe.ReplaceAllString(text, "$1")
	text = inlineRe.ReplaceAllString(text, "$1")

	if m := statementRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := selectRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
