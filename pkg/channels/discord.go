package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/ironiklabs/ironbot/pkg/agent"
	"github.com/ironiklabs/ironbot/pkg/config"
)

// DiscordChannel answers direct messages, mentions, and replies to the bot.
type DiscordChannel struct {
	*BaseChannel
	config  config.DiscordConfig
	ownerID string
	session *discordgo.Session
	botID   string
}

func NewDiscordChannel(cfg config.DiscordConfig, ownerID string, handler Handler, admin AdminHandler) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", handler, admin, cfg.AllowFrom),
		config:      cfg,
		ownerID:     ownerID,
		session:     session,
	}, nil
}

func (d *DiscordChannel) Start(ctx context.Context) error {
	d.session.AddHandler(d.onMessageCreate)

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	if d.session.State != nil && d.session.State.User != nil {
		d.botID = d.session.State.User.ID
	}

	d.setRunning(true)
	log.Info("discord channel started", "bot_id", d.botID)
	return nil
}

func (d *DiscordChannel) Stop(ctx context.Context) error {
	d.setRunning(false)
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	log.Info("discord channel stopped")
	return nil
}

func (d *DiscordChannel) Send(ctx context.Context, channelID, text string) error {
	if _, err := d.session.ChannelMessageSend(channelID, text); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// SendDirect opens (or reuses) a DM channel with the user and sends text.
func (d *DiscordChannel) SendDirect(ctx context.Context, userID, text string) error {
	ch, err := d.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("discord dm channel: %w", err)
	}
	return d.Send(ctx, ch.ID, text)
}

func (d *DiscordChannel) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == d.botID {
		return
	}

	isDM := m.GuildID == ""
	if !d.shouldRespond(m, isDM) {
		return
	}

	content := d.stripMention(m.Content)

	msg := agent.Message{
		Channel:     "discord",
		UserID:      m.Author.ID,
		Username:    m.Author.Username,
		DisplayName: displayNameFor(m),
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
		Content:     content,
		IsOwner:     m.Author.ID == d.ownerID,
	}

	text, after, ok := d.Dispatch(context.Background(), msg)
	if !ok {
		log.Debug("discord sender not allowed", "user", m.Author.ID)
		return
	}

	if _, err := s.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
		log.Error("discord send failed", "channel", m.ChannelID, "error", err)
		return
	}
	after()
}

// shouldRespond applies the trigger rules: DMs only from the owner, guild
// messages only when the bot is mentioned or the message replies to it.
func (d *DiscordChannel) shouldRespond(m *discordgo.MessageCreate, isDM bool) bool {
	if isDM {
		return m.Author.ID == d.ownerID
	}
	for _, u := range m.Mentions {
		if u.ID == d.botID {
			return true
		}
	}
	if ref := m.ReferencedMessage; ref != nil && ref.Author != nil && ref.Author.ID == d.botID {
		return true
	}
	return false
}

func (d *DiscordChannel) stripMention(content string) string {
	if d.botID == "" {
		return strings.TrimSpace(content)
	}
	content = strings.ReplaceAll(content, "<@"+d.botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+d.botID+">", "")
	return strings.TrimSpace(content)
}

func displayNameFor(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
