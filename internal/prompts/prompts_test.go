package prompts

import (
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/KillerHyena/Inquiro/internal/domain"
)

func TestSystemPromptKnownFunctions(t *testing.T) {
	var r Registry
	for _, fn := range domain.Functions() {
		got := r.SystemPrompt(fn.ID, language.Und)
		if got == "" || got == fallbackPrompt {
			t.Fatalf("%s: expected dedicated prompt, got %q", fn.ID, got)
		}
	}
}

func TestSystemPromptFallback(t *testing.T) {
	var r Registry
	if got := r.SystemPrompt("poetry", language.Und); got != fallbackPrompt {
		t.Fatalf("expected fallback prompt, got %q", got)
	}
}

func TestTranslatePromptUsesLocale(t *testing.T) {
	var r Registry
	tests := []struct {
		name   string
		locale language.Tag
		want   string
	}{
		{name: "indonesian", locale: language.Indonesian, want: "Indonesian"},
		{name: "regional french", locale: language.MustParse("fr-CA"), want: "French"},
		{name: "undetermined", locale: language.Und, want: "English"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := r.SystemPrompt(domain.FunctionTranslate, tc.locale)
			if !strings.Contains(got, "into "+tc.want+".") {
				t.Fatalf("prompt %q does not target %s", got, tc.want)
			}
		})
	}
}
