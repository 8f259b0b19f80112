package domain

import "strings"

// FunctionID identifies one of the fixed request behaviors.
type FunctionID string

const (
	FunctionSummarize FunctionID = "summarize"
	FunctionExplain   FunctionID = "explain"
	FunctionTranslate FunctionID = "translate"
	FunctionCode      FunctionID = "code"
	FunctionCreative  FunctionID = "creative"
)

// Function describes a selectable function for clients.
type Function struct {
	ID          FunctionID `json:"id"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
}

var functions = []Function{
	{ID: FunctionSummarize, Name: "Summarize", Icon: "bi-file-text", Description: "Condense long texts into key points"},
	{ID: FunctionExplain, Name: "Explain", Icon: "bi-journal-text", Description: "Get clear explanations of concepts"},
	{ID: FunctionTranslate, Name: "Translate", Icon: "bi-translate", Description: "Translate text to another language"},
	{ID: FunctionCode, Name: "Code Assistant", Icon: "bi-code-slash", Description: "Generate or explain code snippets"},
	{ID: FunctionCreative, Name: "Creative Writer", Icon: "bi-pencil", Description: "Generate stories, poems, and more"},
}

// Functions returns a copy of the registry in display order.
func Functions() []Function {
	out := make([]Function, len(functions))
	copy(out, functions)
	return out
}

// LookupFunction resolves an id, tolerating surrounding whitespace and case.
func LookupFunction(id string) (Function, bool) {
	normalized := FunctionID(strings.ToLower(strings.TrimSpace(id)))
	for _, fn := range functions {
		if fn.ID == normalized {
			return fn, true
		}
	}
	return Function{}, false
}
