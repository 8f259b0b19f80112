package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestLookupFunction(t *testing.T) {
	tests := []struct {
		input string
		want  FunctionID
		ok    bool
	}{
		{input: "summarize", want: FunctionSummarize, ok: true},
		{input: " Translate ", want: FunctionTranslate, ok: true},
		{input: "CODE", want: FunctionCode, ok: true},
		{input: "poetry", ok: false},
		{input: "", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			fn, ok := LookupFunction(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && fn.ID != tc.want {
				t.Fatalf("id = %q, want %q", fn.ID, tc.want)
			}
		})
	}
}

func TestFunctionsReturnsCopy(t *testing.T) {
	list := Functions()
	if len(list) != 5 {
		t.Fatalf("expected 5 functions, got %d", len(list))
	}
	list[0].Name = "mutated"
	if Functions()[0].Name != "Summarize" {
		t.Fatal("registry was mutated through returned slice")
	}
}

func TestFeedbackValidate(t *testing.T) {
	valid := Feedback{RequestID: "abc", Rating: 4}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := map[string]Feedback{
		"missing id":    {Rating: 3},
		"rating low":    {RequestID: "abc", Rating: 0},
		"rating high":   {RequestID: "abc", Rating: 6},
		"long comments": {RequestID: "abc", Rating: 3, Comments: strings.Repeat("x", maxCommentLength+1)},
	}
	for name, fb := range cases {
		t.Run(name, func(t *testing.T) {
			if err := fb.Validate(); !errors.Is(err, ErrInvalidFeedback) {
				t.Fatalf("expected ErrInvalidFeedback, got %v", err)
			}
		})
	}
}
