package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/ironiklabs/ironbot/pkg/agent"
)

// Handler is the message pipeline a channel delivers into. AfterReply runs
// deferred work and must be called only after the reply has been sent.
type Handler interface {
	HandleMessage(ctx context.Context, msg agent.Message) agent.Reply
	AfterReply(r agent.Reply)
}

// AdminHandler intercepts owner slash commands before they reach the model.
// Handled reports whether the message was consumed as a command.
type AdminHandler interface {
	Handle(ctx context.Context, msg agent.Message) (reply string, handled bool)
}

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, channelID, text string) error
	IsRunning() bool
	IsAllowed(senderID string) bool
}

// BaseChannel carries the pieces every channel shares: the allowlist, the
// running flag, and dispatch into the admin handler or the agent.
type BaseChannel struct {
	name      string
	handler   Handler
	admin     AdminHandler
	running   atomic.Bool
	allowList []string
}

func NewBaseChannel(name string, handler Handler, admin AdminHandler, allowList []string) *BaseChannel {
	return &BaseChannel{
		name:      name,
		handler:   handler,
		admin:     admin,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

// IsAllowed matches senderID against the allowlist. An empty allowlist
// allows everyone. Entries may be a bare ID, "@username", or the compound
// "id|username" form; compound sender IDs match on either part.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	idPart := senderID
	userPart := ""
	if idx := strings.Index(senderID, "|"); idx > 0 {
		idPart = senderID[:idx]
		userPart = senderID[idx+1:]
	}

	for _, allowed := range c.allowList {
		bare := strings.TrimPrefix(allowed, "@")

		allowedID := bare
		allowedUser := ""
		if idx := strings.Index(bare, "|"); idx > 0 {
			allowedID = bare[:idx]
			allowedUser = bare[idx+1:]
		}

		if senderID == bare ||
			idPart == bare ||
			idPart == allowedID ||
			(allowedUser != "" && senderID == allowedUser) ||
			(userPart != "" && (userPart == bare || userPart == allowedID || userPart == allowedUser)) {
			return true
		}
	}

	return false
}

// Dispatch routes one inbound message: allowlist check, then owner commands,
// then the agent. The returned after func must run once the reply text has
// been delivered; ok is false when the sender is not allowed.
func (c *BaseChannel) Dispatch(ctx context.Context, msg agent.Message) (text string, after func(), ok bool) {
	if !c.IsAllowed(compoundSenderID(msg)) {
		return "", nil, false
	}

	if c.admin != nil && msg.IsOwner {
		if reply, handled := c.admin.Handle(ctx, msg); handled {
			return reply, func() {}, true
		}
	}

	reply := c.handler.HandleMessage(ctx, msg)
	return reply.Text, func() { c.handler.AfterReply(reply) }, true
}

func (c *BaseChannel) setRunning(running bool) {
	c.running.Store(running)
}

func compoundSenderID(msg agent.Message) string {
	if msg.Username != "" {
		return msg.UserID + "|" + msg.Username
	}
	return msg.UserID
}
