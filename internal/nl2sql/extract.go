package nl2sql

import (
	"encoding/json"
	"strings"
)

// shapeMatcher attempts to pull text out of one known response layout.
// The boolean reports whether the payload matched the layout at all,
// independently of whether the extracted text is useful.
type shapeMatcher func(payload []byte) (string, bool)

// responseShapes is probed in order; the first matching shape wins.
var responseShapes = []shapeMatcher{
	matchDirectText,
	matchCandidateParts,
	matchChatChoices,
	matchOutputContent,
}

// ExtractText pulls the model's text out of a provider response body.
// Unknown layouts fall back to the raw payload so the cleaner still
// gets a chance at plain-text responses.
func ExtractText(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	for _, match := range responseShapes {
		if text, ok := match(payload); ok {
			return text
		}
	}
	return string(payload)
}

func matchDirectText(payload []byte) (string, bool) {
	var body struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Text == nil {
		return "", false
	}
	if strings.TrimSpace(*body.Text) == "" {
		return "", false
	}
	return *body.Text, true
}

func matchCandidateParts(payload []byte) (string, bool) {
	var body struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Candidates) == 0 {
		return "", false
	}
	parts := body.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", false
	}
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		texts = append(texts, part.Text)
	}
	return strings.Join(texts, ""), true
}

func matchChatChoices(payload []byte) (string, bool) {
	var body struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Choices) == 0 {
		return "", false
	}
	content := body.Choices[0].Message.Content
	if content == nil {
		return "", false
	}
	return *content, true
}

func matchOutputContent(payload []byte) (string, bool) {
	var body struct {
		Output []struct {
			Content []json.RawMessage `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Output) == 0 {
		return "", false
	}
	content := body.Output[0].Content
	if len(content) == 0 {
		return "", false
	}
	var block struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(content[0], &block); err != nil || block.Text == nil {
		return "", false
	}
	return *block.Text, true
}
