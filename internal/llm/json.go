package llm

import (
	"bytes"
	"encoding/json"
)

// ExtractJSON pulls the first complete JSON object out of model output
// that wraps it in markdown fences or prose. Returns false when no
// valid object can be found.
func ExtractJSON(raw []byte) ([]byte, bool) {
	// Fast path: the whole payload is already valid JSON.
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) && len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, true
	}

	// Scan for a balanced top-level object, respecting strings.
	start := bytes.IndexByte(raw, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(raw); i++ {
			c := raw[i]
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
					candidate := raw[start : i+1]
					if json.Valid(candidate) {
						return candidate, true
					}
					i = len(raw) // abandon this start position
				}
			}
		}
		next := bytes.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start = start + 1 + next
	}
	return nil, false
}
