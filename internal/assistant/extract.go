package assistant

import (
	"fmt"
	"regexp"
	"strings"
)

// ExtractJSONObject pulls the first balanced JSON object out of a model
// response. Handles clean JSON, markdown-fenced JSON, and JSON embedded in
// surrounding prose.
func ExtractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	// Strip a markdown fence when the whole payload is fenced.
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	// Scan for the matching closing brace, respecting strings and escapes.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:arduino|cpp|ino|c\\+\\+|c)?\\s*\\n?(.*?)```")

// ExtractCodeBlock pulls the first fenced code block out of a model
// response. When the response has no fences it is returned trimmed, on the
// assumption the model answered with bare code.
func ExtractCodeBlock(text string) string {
	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
