package oracle

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoPayload indicates the completion text contained no JSON object.
var ErrNoPayload = errors.New("oracle: completion contains no JSON object")

// DecodePayload extracts the first JSON object embedded in a completion and
// unmarshals it into v. Models wrap payloads in code fences or prose more
// often than not, so everything before the first '{' and after its matching
// '}' is discarded.
func DecodePayload(text string, v any) error {
	payload, err := extractObject(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, v)
}

// extractObject scans for the first brace-balanced object in text, skipping
// braces inside string literals.
func extractObject(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, ErrNoPayload
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), nil
			}
		}
	}
	return nil, ErrNoPayload
}
