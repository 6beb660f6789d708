package channels

import (
	"testing"

	"github.com/mymmrac/telego"
)

func TestTelegramDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user telego.User
		want string
	}{
		{"first only", telego.User{FirstName: "Kara"}, "Kara"},
		{"first and last", telego.User{FirstName: "Kara", LastName: "Lin"}, "Kara Lin"},
		{"username fallback", telego.User{Username: "kara_l"}, "kara_l"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := telegramDisplayName(&tt.user); got != tt.want {
				t.Errorf("telegramDisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepliesToBot(t *testing.T) {
	c := &TelegramChannel{botID: 42}

	if c.repliesToBot(&telego.Message{}) {
		t.Error("message with no reply should not match")
	}
	msg := &telego.Message{ReplyToMessage: &telego.Message{From: &telego.User{ID: 42}}}
	if !c.repliesToBot(msg) {
		t.Error("reply to the bot should match")
	}
	msg.ReplyToMessage.From.ID = 7
	if c.repliesToBot(msg) {
		t.Error("reply to someone else should not match")
	}
}
