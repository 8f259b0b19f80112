package openai

import "strings"

var modelAliases = map[string]string{
	"gpt-3.5":      "gpt-3.5-turbo",
	"gpt3.5":       "gpt-3.5-turbo",
	"gpt-3-5":      "gpt-3.5-turbo",
	"gpt-35-turbo": "gpt-3.5-turbo",
	"gpt35-turbo":  "gpt-3.5-turbo",
	"gpt4o-mini":   "gpt-4o-mini",
	"gpt4omini":    "gpt-4o-mini",
	"gpt4o":        "gpt-4o",
}

// NormalizeModel canonicalizes common spellings of model names. Unknown
// names are passed through unchanged so that the upstream decides whether
// they exist. The second value is "alias" when an alias was applied and
// "default" when the input was empty.
func NormalizeModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return DefaultModel, "default"
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if alias, ok := modelAliases[normalized]; ok {
		return alias, "alias"
	}
	return trimmed, ""
}
