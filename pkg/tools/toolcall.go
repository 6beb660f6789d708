package tools

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ToolCall is a single tool request the model can embed in its reply,
// expected as {"tool":"web_search","query":"..."}.
type ToolCall struct {
	Tool  string `json:"tool"`
	Query string `json:"query"`
}

var toolFenceRe = regexp.MustCompile("(?is)^```(?:json)?\\s*|\\s*```$")

// ParseToolCall extracts a tool call from model output. The text may wrap
// the JSON object in code fences or commentary; anything that does not
// contain a complete object with non-empty tool and query yields nil.
func ParseToolCall(text string) *ToolCall {
	if text == "" {
		return nil
	}

	cleaned := toolFenceRe.ReplaceAllString(strings.TrimSpace(text), "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	var call ToolCall
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &call); err != nil {
		return nil
	}

	call.Tool = strings.TrimSpace(call.Tool)
	call.Query = strings.TrimSpace(call.Query)
	if call.Tool == "" || call.Query == "" {
		return nil
	}
	return &call
}
