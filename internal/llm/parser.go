package llm

import (
	"strings"
)

// CleanMarkdownWrapper strips a surrounding ``` fence (with optional language tag).
func CleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		first := strings.TrimSpace(content[:idx])
		if first == "" || !strings.ContainsAny(first, "{[") {
			content = content[idx+1:]
		}
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// ExtractJSONObject returns the first balanced {...} block in content.
func ExtractJSONObject(content string) (string, bool) {
	return extractBalanced(CleanMarkdownWrapper(content), '{', '}')
}

// ExtractJSONArray returns the first balanced [...] block in content.
func ExtractJSONArray(content string) (string, bool) {
	return extractBalanced(CleanMarkdownWrapper(content), '[', ']')
}

func extractBalanced(content string, open, closing byte) (string, bool) {
	start := strings.IndexByte(content, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}
