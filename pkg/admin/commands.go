package admin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironiklabs/ironbot/pkg/agent"
	"github.com/ironiklabs/ironbot/pkg/config"
	"github.com/ironiklabs/ironbot/pkg/memory"
	"github.com/ironiklabs/ironbot/pkg/voice"
)

// Sender delivers a direct message to a user on one platform.
type Sender interface {
	SendDirect(ctx context.Context, userID, text string) error
}

// Commander handles owner slash commands. Channels call Handle before the
// agent sees a message; only commands it recognizes are consumed.
type Commander struct {
	cfg     *config.Config
	store   *memory.Store
	agent   *agent.Agent
	tts     *voice.ElevenLabsTTS
	started time.Time

	mu      sync.RWMutex
	senders map[string]Sender
}

func NewCommander(cfg *config.Config, store *memory.Store, ag *agent.Agent, tts *voice.ElevenLabsTTS) *Commander {
	return &Commander{
		cfg:     cfg,
		store:   store,
		agent:   ag,
		tts:     tts,
		started: time.Now(),
		senders: make(map[string]Sender),
	}
}

// RegisterSender makes /dm work on the named channel.
func (c *Commander) RegisterSender(channel string, s Sender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.senders[channel] = s
}

// Handle dispatches one owner message. It reports handled=false for anything
// that is not a recognized command so normal conversation flows through.
func (c *Commander) Handle(ctx context.Context, msg agent.Message) (string, bool) {
	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, "/") {
		return "", false
	}

	cmd, rest, _ := strings.Cut(content, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/status":
		return c.status(ctx, msg.UserID), true
	case "/memories":
		userID := msg.UserID
		if rest != "" {
			userID = rest
		}
		return c.listMemories(ctx, userID), true
	case "/search":
		return c.toggle(cmd, rest, "web search", c.agent.SetSearchEnabled), true
	case "/voice":
		return c.toggle(cmd, rest, "voice", c.agent.SetVoiceEnabled), true
	case "/say":
		return c.say(ctx, rest), true
	case "/dm":
		return c.dm(ctx, msg.Channel, rest), true
	default:
		return "", false
	}
}

func (c *Commander) status(ctx context.Context, userID string) string {
	memCount, err := c.store.CountMemories(ctx, userID)
	if err != nil {
		log.Error("count memories failed", "error", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "uptime: %s\n", time.Since(c.started).Round(time.Second))
	fmt.Fprintf(&b, "model: %s\n", c.cfg.Provider.Model)
	fmt.Fprintf(&b, "web search: %s\n", onOff(c.agent.SearchEnabled()))
	fmt.Fprintf(&b, "voice: %s\n", onOff(c.agent.VoiceEnabled()))
	fmt.Fprintf(&b, "memories about you: %d", memCount)
	return b.String()
}

func (c *Commander) listMemories(ctx context.Context, userID string) string {
	memories, err := c.store.ListMemories(ctx, userID, 20)
	if err != nil {
		log.Error("list memories failed", "error", err)
		return "couldn't read memories"
	}
	if len(memories) == 0 {
		return "no memories stored for you yet"
	}

	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, fmt.Sprintf("- (%s, %.2f) %s", m.Type, m.Confidence, m.Content))
	}
	return strings.Join(lines, "\n")
}

func (c *Commander) toggle(cmd, arg, name string, set func(bool)) string {
	switch arg {
	case "on":
		set(true)
		return name + " enabled"
	case "off":
		set(false)
		return name + " disabled"
	default:
		return fmt.Sprintf("usage: %s on|off", cmd)
	}
}

func (c *Commander) say(ctx context.Context, text string) string {
	if text == "" {
		return "usage: /say <text>"
	}
	if c.tts == nil || !c.agent.VoiceEnabled() {
		return "voice is not enabled"
	}

	path, err := c.tts.SynthesizeToMP3(ctx, text, c.cfg.DataDir())
	if err != nil {
		log.Error("tts failed", "error", err)
		return "speech synthesis failed"
	}
	return "saved speech to " + path
}

func (c *Commander) dm(ctx context.Context, channel, rest string) string {
	userID, text, ok := strings.Cut(rest, " ")
	text = strings.TrimSpace(text)
	if !ok || userID == "" || text == "" {
		return "usage: /dm <user_id> <text>"
	}

	c.mu.RLock()
	sender := c.senders[channel]
	c.mu.RUnlock()
	if sender == nil {
		return "direct messages are not supported on this channel"
	}

	if err := sender.SendDirect(ctx, userID, text); err != nil {
		log.Error("dm failed", "user", userID, "error", err)
		return "couldn't deliver that"
	}
	return "sent"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
