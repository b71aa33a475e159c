package grading

import "strings"

// fold trims surrounding whitespace and lowercases, the only normalization
// short_answer grading applies.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// foldBool normalizes a boolean-as-text submission to lowercase
// "true"/"false". Anything else folds to "" and can never match.
func foldBool(s string) string {
	switch fold(s) {
	case "true":
		return "true"
	case "false":
		return "false"
	default:
		return ""
	}
}
