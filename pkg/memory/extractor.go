package memory

import (
	"context"
	_ "embed"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ironiklabs/ironbot/pkg/providers"
)

//go:embed prompts/extraction.txt
var extractionPrompt string

// extractionWindow bounds how many conversation lines are sent to the model.
// Older lines are dropped silently.
const extractionWindow = 20

// ExtractedMemory is one candidate fact emitted by the model, before the
// confidence gate is applied.
type ExtractedMemory struct {
	Type       string
	Content    string
	Confidence float64
}

// Extractor turns a window of recent conversation into candidate memories
// using a single completion call. It holds no state beyond its injected
// completer.
type Extractor struct {
	completer providers.Completer
}

func NewExtractor(completer providers.Completer) *Extractor {
	return &Extractor{completer: completer}
}

// Extract runs one extraction cycle over the given "role: content" lines.
// Provider failures and malformed model output both degrade to an empty
// result; Extract never returns an error.
func (e *Extractor) Extract(ctx context.Context, conversation []string) []ExtractedMemory {
	if len(conversation) > extractionWindow {
		conversation = conversation[len(conversation)-extractionWindow:]
	}

	prompt := extractionPrompt + "\n\nCONVERSATION:\n" + strings.Join(conversation, "\n") + "\n"

	raw, err := e.completer.GenerateText(ctx, prompt)
	if err != nil {
		log.Error("memory extraction failed", "err", err)
		return nil
	}

	items := extractJSONArray(raw)
	out := make([]ExtractedMemory, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		mtype := strings.TrimSpace(asString(obj["type"]))
		content := strings.TrimSpace(asString(obj["content"]))
		if mtype == "" || content == "" {
			continue
		}

		out = append(out, ExtractedMemory{
			Type:       mtype,
			Content:    content,
			Confidence: asFloat(obj["confidence"]),
		})
	}
	return out
}

var codeFenceRe = regexp.MustCompile("(?is)^```(?:json)?\\s*|\\s*```$")

// extractJSONArray pulls the first JSON array out of semi-trusted model
// output. Markdown code fences are stripped first, then everything outside
// the outermost brackets is discarded, so commentary before or after the
// array is tolerated. Anything unparseable yields an empty result, never
// an error.
func extractJSONArray(text string) []any {
	text = codeFenceRe.ReplaceAllString(strings.TrimSpace(text), "")

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	var data []any
	if err := json.Unmarshal([]byte(text[start:end+1]), &data); err != nil {
		return nil
	}
	return data
}

// asString coerces scalar JSON values to text. Non-scalar values yield ""
// and the element is dropped by the caller's required-field check.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// asFloat coerces a confidence value to float64, defaulting to 0 for
// missing or non-numeric input. A bad confidence never discards the record.
func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
