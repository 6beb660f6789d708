package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeCompleter returns a canned response or error for every call.
type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractParsesWellFormedArray(t *testing.T) {
	fake := &fakeCompleter{response: `[
		{"type": "preference", "content": "likes tea", "confidence": 0.9},
		{"type": "fact", "content": "lives in Ankara", "confidence": 0.8}
	]`}
	e := NewExtractor(fake)

	got := e.Extract(context.Background(), []string{"user: I love tea"})
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Type != "preference" || got[0].Content != "likes tea" || got[0].Confidence != 0.9 {
		t.Errorf("record 0 wrong: %+v", got[0])
	}
	if got[1].Content != "lives in Ankara" {
		t.Errorf("record 1 wrong: %+v", got[1])
	}
}

func TestExtractStripsCodeFenceAndCommentary(t *testing.T) {
	fake := &fakeCompleter{response: "```json\n[{\"type\":\"fact\",\"content\":\"x\"}]\n``` trailing commentary"}
	e := NewExtractor(fake)

	got := e.Extract(context.Background(), []string{"user: hi"})
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Confidence != 0.0 {
		t.Errorf("absent confidence should default to 0, got %v", got[0].Confidence)
	}
}

func TestExtractJSONArrayStripsTightFences(t *testing.T) {
	got := extractJSONArray("```json\n[1, 2]\n```")
	if len(got) != 2 {
		t.Fatalf("got %d elements, want 2: %v", len(got), got)
	}
}

func TestExtractGarbageReturnsEmpty(t *testing.T) {
	cases := []string{
		"no brackets here at all",
		"[not json",
		"{\"type\": \"object not array\"}",
		"[} mismatched ]",
		"",
	}
	for _, response := range cases {
		e := NewExtractor(&fakeCompleter{response: response})
		if got := e.Extract(context.Background(), []string{"user: hi"}); len(got) != 0 {
			t.Errorf("response %q: got %d records, want 0", response, len(got))
		}
	}
}

func TestExtractSkipsMalformedElements(t *testing.T) {
	fake := &fakeCompleter{response: `[
		{"type": "fact", "content": "keep me", "confidence": 0.9},
		{"type": "", "content": "no type"},
		{"type": "fact", "content": "   "},
		"not an object",
		42,
		{"type": "fact", "content": "bad confidence", "confidence": "not a number"}
	]`}
	e := NewExtractor(fake)

	got := e.Extract(context.Background(), []string{"user: hi"})
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].Content != "keep me" {
		t.Errorf("record 0: %+v", got[0])
	}
	// Non-numeric confidence defaults to 0 without dropping the record.
	if got[1].Content != "bad confidence" || got[1].Confidence != 0 {
		t.Errorf("record 1: %+v", got[1])
	}
}

func TestExtractCoercesScalarFields(t *testing.T) {
	fake := &fakeCompleter{response: `[
		{"type": "fact", "content": true, "confidence": 0.9},
		{"type": 7, "content": "numeric type", "confidence": 0.8},
		{"type": "fact", "content": {"nested": "object"}, "confidence": 0.8}
	]`}
	e := NewExtractor(fake)

	got := e.Extract(context.Background(), []string{"user: hi"})
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].Content != "true" {
		t.Errorf("boolean content = %q, want %q", got[0].Content, "true")
	}
	if got[1].Type != "7" {
		t.Errorf("numeric type = %q, want %q", got[1].Type, "7")
	}
}

func TestExtractProviderFailureDegradesToEmpty(t *testing.T) {
	e := NewExtractor(&fakeCompleter{err: errors.New("quota exceeded")})

	got := e.Extract(context.Background(), []string{"user: hi"})
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestExtractWindowsConversation(t *testing.T) {
	fake := &fakeCompleter{response: "[]"}
	e := NewExtractor(fake)

	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("user: line %d", i)
	}
	e.Extract(context.Background(), lines)

	if len(fake.prompts) != 1 {
		t.Fatalf("expected one completion call")
	}
	prompt := fake.prompts[0]
	if strings.Contains(prompt, "line 9\n") {
		t.Error("prompt should not contain lines older than the window")
	}
	if !strings.Contains(prompt, "line 10") || !strings.Contains(prompt, "line 29") {
		t.Error("prompt missing expected window lines")
	}
}

func TestExtractJSONArrayNumericCoercion(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{0.75, 0.75},
		{"0.5", 0.5},
		{"oops", 0},
		{nil, 0},
		{true, 0},
	}
	for _, tc := range cases {
		if got := asFloat(tc.in); got != tc.want {
			t.Errorf("asFloat(%v): got %v, want %v", tc.in, got, tc.want)
		}
	}
}
