package channels

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/ironiklabs/ironbot/pkg/agent"
	"github.com/ironiklabs/ironbot/pkg/config"
)

// TelegramChannel answers private chats directly and group chats when the
// bot is @-mentioned. Updates arrive via long polling.
type TelegramChannel struct {
	*BaseChannel
	bot           *telego.Bot
	config        config.TelegramConfig
	ownerID       string
	cancelPolling context.CancelFunc
	botUsername   string
	botID         int64
}

func NewTelegramChannel(cfg config.TelegramConfig, ownerID string, handler Handler, admin AdminHandler) (*TelegramChannel, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", handler, admin, cfg.AllowFrom),
		bot:         bot,
		config:      cfg,
		ownerID:     ownerID,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	botInfo, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	c.botUsername = botInfo.Username
	c.botID = botInfo.ID

	pollCtx, cancel := context.WithCancel(ctx)
	c.cancelPolling = cancel

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{Timeout: 30})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	c.setRunning(true)
	log.Info("telegram channel started", "username", botInfo.Username)

	go func() {
		for update := range updates {
			if update.Message != nil {
				c.handleUpdate(ctx, update.Message)
			}
		}
		log.Debug("telegram updates channel closed")
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.cancelPolling != nil {
		c.cancelPolling()
		c.cancelPolling = nil
	}
	log.Info("telegram channel stopped")
	return nil
}

func (c *TelegramChannel) Send(ctx context.Context, channelID, text string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id %q: %w", channelID, err)
	}
	return c.sendText(ctx, chatID, text)
}

// SendDirect messages a user's private chat; for Telegram the private chat
// ID equals the user ID.
func (c *TelegramChannel) SendDirect(ctx context.Context, userID, text string) error {
	return c.Send(ctx, userID, text)
}

func (c *TelegramChannel) handleUpdate(ctx context.Context, message *telego.Message) {
	user := message.From
	if user == nil || user.IsBot {
		return
	}

	content := message.Text
	if content == "" {
		content = message.Caption
	}

	if message.Chat.Type != "private" {
		mention := "@" + c.botUsername
		if !strings.Contains(content, mention) && !c.repliesToBot(message) {
			return
		}
		content = strings.TrimSpace(strings.ReplaceAll(content, mention, ""))
	}

	userID := strconv.FormatInt(user.ID, 10)
	msg := agent.Message{
		Channel:     "telegram",
		UserID:      userID,
		Username:    user.Username,
		DisplayName: telegramDisplayName(user),
		ChannelID:   strconv.FormatInt(message.Chat.ID, 10),
		MessageID:   strconv.Itoa(message.MessageID),
		Content:     content,
		IsOwner:     userID == c.ownerID,
	}

	text, after, ok := c.Dispatch(ctx, msg)
	if !ok {
		log.Debug("telegram sender not allowed", "user", userID)
		return
	}

	if err := c.sendText(ctx, message.Chat.ID, text); err != nil {
		log.Error("telegram send failed", "chat", message.Chat.ID, "error", err)
		return
	}
	after()
}

func (c *TelegramChannel) repliesToBot(message *telego.Message) bool {
	reply := message.ReplyToMessage
	return reply != nil && reply.From != nil && reply.From.ID == c.botID
}

func (c *TelegramChannel) sendText(ctx context.Context, chatID int64, text string) error {
	params := &telego.SendMessageParams{
		ChatID: tu.ID(chatID),
		Text:   text,
	}
	return c.sendWithRetry(func() error {
		_, err := c.bot.SendMessage(ctx, params)
		return err
	})
}

// sendWithRetry retries a Telegram API call on rate limit (429) errors.
func (c *TelegramChannel) sendWithRetry(fn func() error) error {
	const maxRetries = 3
	for i := 0; i <= maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		var tgErr *telegoapi.Error
		if errors.As(err, &tgErr) && tgErr.Parameters != nil && tgErr.Parameters.RetryAfter > 0 {
			wait := time.Duration(tgErr.Parameters.RetryAfter) * time.Second
			log.Warn("telegram rate limited", "retry_after", wait, "attempt", i+1)
			time.Sleep(wait)
			continue
		}
		return err
	}
	return fmt.Errorf("telegram rate limit: max retries exceeded")
}

func telegramDisplayName(user *telego.User) string {
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	if name == "" {
		name = user.Username
	}
	return name
}
