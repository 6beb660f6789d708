package providers

import "context"

// Completer is the narrow capability the bot needs from a language model:
// turn a prompt string into a generated text response. Implementations may
// fail on provider errors; callers decide whether that degrades or propagates.
type Completer interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
