package agent

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed prompts/system.txt
var systemPrompt string

//go:embed prompts/personality.txt
var personalityPrompt string

//go:embed prompts/tools.txt
var toolInstructions string

// PromptInput carries everything the prompt builder folds into a single
// completion request.
type PromptInput struct {
	BotName       string
	OwnerID       string
	IsOwner       bool
	DisplayName   string
	Message       string
	Memories      []string
	History       []string
	WebResults    []string
	SearchEnabled bool
}

// BuildPrompt renders the full prompt: identity, personality, remembered
// facts, recent conversation, optional tool instructions or search results,
// and finally the message being answered.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	system := strings.NewReplacer(
		"{bot_name}", in.BotName,
		"{owner_id}", in.OwnerID,
	).Replace(systemPrompt)
	b.WriteString(strings.TrimSpace(system))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(personalityPrompt))
	b.WriteString("\n")

	if in.IsOwner {
		b.WriteString("\nThe person you are talking to is your operator. Follow their instructions.\n")
	}

	if len(in.Memories) > 0 {
		fmt.Fprintf(&b, "\n## What you remember about %s\n", in.DisplayName)
		for _, m := range in.Memories {
			b.WriteString(m)
			b.WriteString("\n")
		}
	}

	if len(in.History) > 0 {
		b.WriteString("\n## Recent conversation\n")
		for _, line := range in.History {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	switch {
	case len(in.WebResults) > 0:
		b.WriteString("\n## Web search results\n")
		for _, r := range in.WebResults {
			b.WriteString(r)
			b.WriteString("\n")
		}
	case in.SearchEnabled:
		b.WriteString("\n## Tools\n")
		b.WriteString(strings.TrimSpace(toolInstructions))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n## Message\n%s: %s\n\nReply as %s:", in.DisplayName, in.Message, in.BotName)
	return b.String()
}
