// Package prompts holds the static system prompts used for each function.
package prompts

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/KillerHyena/Inquiro/internal/domain"
)

const fallbackPrompt = "You are a helpful AI assistant. Answer the user's request clearly and concisely."

// DefaultTargetLanguage is used by the translate function when the request
// carries no usable locale.
var DefaultTargetLanguage = language.English

var systemPrompts = map[domain.FunctionID]string{
	domain.FunctionSummarize: "You are an expert summarizer. Condense the user's text into its key points. " +
		"Use short bullet points, keep every important fact, and do not add information that is not in the text.",
	domain.FunctionExplain: "You are a patient teacher. Explain the concept the user asks about in plain language, " +
		"start with a one sentence overview, then give details and a concrete example.",
	domain.FunctionTranslate: "You are a professional translator. Translate the user's text into %s. " +
		"If the text is already in %s, translate it into English instead. " +
		"Preserve meaning, tone and formatting. Reply with the translation only.",
	domain.FunctionCode: "You are a senior software engineer. Generate or explain code for the user's request. " +
		"Use fenced code blocks with a language tag and keep explanations brief.",
	domain.FunctionCreative: "You are a creative writer. Write an original story, poem or other piece that matches the user's request. " +
		"Be vivid and imaginative, and respect any requested length or form.",
}

// Registry resolves system prompts. The zero value is ready to use.
type Registry struct{}

// SystemPrompt returns the prompt for id, or a generic assistant prompt when
// the id is not registered.
func (Registry) SystemPrompt(id domain.FunctionID, locale language.Tag) string {
	tmpl, ok := systemPrompts[id]
	if !ok {
		return fallbackPrompt
	}
	if id == domain.FunctionTranslate {
		name := TargetLanguageName(locale)
		return fmt.Sprintf(tmpl, name, name)
	}
	return tmpl
}

// TargetLanguageName returns the English display name of the base language of
// tag, falling back to DefaultTargetLanguage for undetermined tags.
func TargetLanguageName(tag language.Tag) string {
	base, conf := tag.Base()
	if tag == language.Und || conf == language.No {
		base, _ = DefaultTargetLanguage.Base()
	}
	name := display.English.Languages().Name(language.Make(base.String()))
	if name == "" {
		return base.String()
	}
	return name
}
