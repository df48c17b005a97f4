// Package parse coerces semi-structured text-generation output into
// machine-readable JSON. The upstream service may wrap a JSON value in
// prose or fenced code blocks; this package tries progressively looser
// extraction strategies and reports a bounded diagnostic on failure.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// errPrefixLimit bounds how much of the original payload a ParseError
// carries, keeping error messages and logs a sane size.
const errPrefixLimit = 500

// ParseError reports that no extraction strategy produced valid JSON.
// Prefix holds at most the first 500 characters of the original text.
type ParseError struct {
	Prefix string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: no JSON value found in response: %s", e.Prefix)
}

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// Extract pulls the first JSON value out of raw text. Strategies are
// tried in order, first success wins:
//
//  1. direct parse when the trimmed text starts with '{' or '['
//  2. the inner content of the first fenced code block
//  3. the first balanced {...} or [...] span in the raw text
//
// Extract is pure and deterministic.
func Extract(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if json.Valid([]byte(trimmed)) {
			return json.RawMessage(trimmed), nil
		}
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return json.RawMessage(inner), nil
		}
	}

	if span := balancedSpan(raw); span != "" && json.Valid([]byte(span)) {
		return json.RawMessage(span), nil
	}

	prefix := raw
	if len(prefix) > errPrefixLimit {
		prefix = prefix[:errPrefixLimit]
	}
	return nil, &ParseError{Prefix: prefix}
}

// ExtractInto extracts the first JSON value and decodes it into out.
func ExtractInto(raw string, out any) error {
	data, err := Extract(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		prefix := string(data)
		if len(prefix) > errPrefixLimit {
			prefix = prefix[:errPrefixLimit]
		}
		return &ParseError{Prefix: prefix}
	}
	return nil
}

// balancedSpan returns the first balanced {...} or [...] span in text,
// the greedy outer match, or "" when braces never balance. String
// literals are respected so braces inside quoted values don't count.
func balancedSpan(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
