package agent

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironiklabs/ironbot/pkg/config"
	"github.com/ironiklabs/ironbot/pkg/memory"
	"github.com/ironiklabs/ironbot/pkg/observability"
	"github.com/ironiklabs/ironbot/pkg/providers"
	"github.com/ironiklabs/ironbot/pkg/ratelimit"
	"github.com/ironiklabs/ironbot/pkg/security"
	"github.com/ironiklabs/ironbot/pkg/tools"
)

const maxMessageRunes = 2000

// Canned replies for the failure paths. The bot always answers something.
const (
	replyRateLimited  = "Easy there. Give it a minute and try again."
	replyBlocked      = "Nice try. Not doing that."
	replyProviderDown = "My brain is offline right now. Ask me again in a bit."
	replyEmpty        = "I've got nothing. Ask me something else."
)

// Message is an inbound chat message, normalized across channels.
type Message struct {
	Channel     string
	UserID      string
	Username    string
	DisplayName string
	ChannelID   string
	MessageID   string
	Content     string
	IsOwner     bool
}

// Reply is the outcome of handling a message. Channels send Text to the
// user and then call AfterReply so background work never delays delivery.
type Reply struct {
	Text         string
	userID       string
	messageID    string
	messageCount int64
}

// Agent ties the pieces together: it guards and persists inbound messages,
// assembles the prompt, calls the model, and decides when memory extraction
// should run.
type Agent struct {
	cfg       *config.Config
	store     *memory.Store
	memories  *memory.Manager
	completer providers.Completer
	search    *tools.WebSearch
	guard     *security.PromptGuard
	limiter   *ratelimit.Limiter
	metrics   *observability.Metrics

	searchEnabled atomic.Bool
	voiceEnabled  atomic.Bool
}

func New(cfg *config.Config, store *memory.Store, memories *memory.Manager, completer providers.Completer, search *tools.WebSearch, guard *security.PromptGuard, limiter *ratelimit.Limiter, metrics *observability.Metrics) *Agent {
	a := &Agent{
		cfg:       cfg,
		store:     store,
		memories:  memories,
		completer: completer,
		search:    search,
		guard:     guard,
		limiter:   limiter,
		metrics:   metrics,
	}
	a.searchEnabled.Store(cfg.Tools.WebSearch.Enabled)
	a.voiceEnabled.Store(cfg.Voice.Enabled)
	return a
}

func (a *Agent) SetSearchEnabled(on bool) { a.searchEnabled.Store(on) }
func (a *Agent) SearchEnabled() bool      { return a.searchEnabled.Load() }
func (a *Agent) SetVoiceEnabled(on bool)  { a.voiceEnabled.Store(on) }
func (a *Agent) VoiceEnabled() bool       { return a.voiceEnabled.Load() }

// HandleMessage runs the full read path for one inbound message and always
// returns a reply. Persistence failures degrade: the user still gets an
// answer, the miss is logged.
func (a *Agent) HandleMessage(ctx context.Context, msg Message) Reply {
	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.ObserveReplyLatency(time.Since(start))
		}
	}()
	if a.metrics != nil {
		a.metrics.MessagesHandled.WithLabelValues(msg.Channel).Inc()
	}

	content := security.Sanitize(msg.Content, maxMessageRunes)
	if content == "" {
		return Reply{Text: replyEmpty}
	}

	if a.limiter != nil && !msg.IsOwner && !a.limiter.Allow(msg.UserID) {
		return Reply{Text: replyRateLimited}
	}

	if a.guard != nil && !msg.IsOwner {
		if res := a.guard.Scan(content); !res.Safe {
			log.Warn("blocked message", "user", msg.UserID, "patterns", res.Patterns, "score", res.Score)
			return Reply{Text: replyBlocked}
		}
	}

	count, err := a.store.TouchUser(ctx, msg.UserID, msg.Username, msg.DisplayName)
	if err != nil {
		log.Error("touch user failed", "user", msg.UserID, "error", err)
	}
	if err := a.store.AddConversationTurn(ctx, msg.UserID, msg.ChannelID, msg.MessageID, memory.RoleUser, content); err != nil {
		log.Error("store user turn failed", "user", msg.UserID, "error", err)
	}

	in := PromptInput{
		BotName:       a.cfg.Bot.Name,
		OwnerID:       a.cfg.Bot.OwnerID,
		IsOwner:       msg.IsOwner,
		DisplayName:   displayName(msg),
		Message:       content,
		Memories:      a.memories.PromptMemories(ctx, msg.UserID),
		History:       a.recentHistory(ctx, msg.UserID),
		SearchEnabled: a.searchAvailable(),
	}

	text, err := a.completer.GenerateText(ctx, BuildPrompt(in))
	if err != nil {
		a.countProviderError("chat")
		log.Error("completion failed", "user", msg.UserID, "error", err)
		return Reply{Text: replyProviderDown}
	}

	// The model may answer with a single tool call instead of a reply.
	// One round only: search, re-prompt with results, take that answer.
	if call := tools.ParseToolCall(text); call != nil && call.Tool == "web_search" && a.searchAvailable() {
		in.WebResults = tools.FormatResults(a.search.Search(ctx, call.Query))
		in.SearchEnabled = false
		text, err = a.completer.GenerateText(ctx, BuildPrompt(in))
		if err != nil {
			a.countProviderError("chat")
			log.Error("completion after search failed", "user", msg.UserID, "error", err)
			return Reply{Text: replyProviderDown}
		}
	}

	if text == "" {
		text = replyEmpty
	}

	if err := a.store.AddConversationTurn(ctx, msg.UserID, msg.ChannelID, "", memory.RoleAssistant, text); err != nil {
		log.Error("store assistant turn failed", "user", msg.UserID, "error", err)
	}

	return Reply{
		Text:         text,
		userID:       msg.UserID,
		messageID:    msg.MessageID,
		messageCount: count,
	}
}

// AfterReply runs the deferred write path. Channels call it once the reply
// has been delivered; extraction happens in the background every N messages.
func (a *Agent) AfterReply(r Reply) {
	n := int64(a.cfg.Memory.ExtractEveryN)
	if n <= 0 || r.userID == "" || r.messageCount <= 0 || r.messageCount%n != 0 {
		return
	}
	a.memories.ScheduleExtraction(r.userID, r.messageID)
}

func (a *Agent) recentHistory(ctx context.Context, userID string) []string {
	turns, err := a.store.RecentConversation(ctx, userID, a.cfg.Memory.HistoryWindow)
	if err != nil {
		log.Error("load history failed", "user", userID, "error", err)
		return nil
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	return lines
}

func (a *Agent) searchAvailable() bool {
	return a.search != nil && a.searchEnabled.Load()
}

func (a *Agent) countProviderError(site string) {
	if a.metrics != nil {
		a.metrics.ProviderErrors.WithLabelValues(site).Inc()
	}
}

func displayName(msg Message) string {
	if msg.DisplayName != "" {
		return msg.DisplayName
	}
	if msg.Username != "" {
		return msg.Username
	}
	return msg.UserID
}
