package classifier

import "strings"

// ExtractJSON isolates a JSON object from free text by taking everything
// from the first '{' to the last '}'. ok is false when either brace is
// missing. When the last '}' precedes the first '{' the fragment is
// empty and will fail to parse.
func ExtractJSON(text string) (fragment string, ok bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 {
		return "", false
	}
	if end < start {
		return "", true
	}
	return text[start : end+1], true
}
