package tools

import "testing"

func TestParseToolCall(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  *ToolCall
	}{
		{
			name:  "bare object",
			input: `{"tool":"web_search","query":"weather ankara"}`,
			want:  &ToolCall{Tool: "web_search", Query: "weather ankara"},
		},
		{
			name:  "fenced json",
			input: "```json\n{\"tool\":\"web_search\",\"query\":\"go releases\"}\n```",
			want:  &ToolCall{Tool: "web_search", Query: "go releases"},
		},
		{
			name:  "surrounding commentary",
			input: "Sure, let me look that up: {\"tool\":\"web_search\",\"query\":\"news\"} one moment",
			want:  &ToolCall{Tool: "web_search", Query: "news"},
		},
		{
			name:  "plain reply",
			input: "The weather is probably fine.",
			want:  nil,
		},
		{
			name:  "missing query",
			input: `{"tool":"web_search","query":"  "}`,
			want:  nil,
		},
		{
			name:  "missing tool",
			input: `{"query":"something"}`,
			want:  nil,
		},
		{
			name:  "invalid json",
			input: `{"tool": web_search}`,
			want:  nil,
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseToolCall(tc.input)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("got nil")
			}
			if got.Tool != tc.want.Tool || got.Query != tc.want.Query {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFormatResults(t *testing.T) {
	lines := FormatResults([]SearchResult{
		{Title: "Go", URL: "https://go.dev", Snippet: "The Go programming language", Source: "brave"},
	})
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "- Go (https://go.dev): The Go programming language" {
		t.Errorf("format: got %q", lines[0])
	}
}
