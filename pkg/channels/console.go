package channels

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/ironiklabs/ironbot/pkg/agent"
)

// ConsoleChannel is an interactive readline loop on the local terminal.
// The console user is always the owner.
type ConsoleChannel struct {
	*BaseChannel
	ownerID string
	botName string
	rl      *readline.Instance
	done    chan struct{}
}

func NewConsoleChannel(ownerID, botName string, handler Handler, admin AdminHandler) *ConsoleChannel {
	return &ConsoleChannel{
		BaseChannel: NewBaseChannel("console", handler, admin, nil),
		ownerID:     ownerID,
		botName:     botName,
		done:        make(chan struct{}),
	}
}

func (c *ConsoleChannel) Start(ctx context.Context) error {
	historyFile := filepath.Join(os.TempDir(), ".ironbot_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	c.rl = rl
	c.setRunning(true)

	go c.readLoop(ctx)
	return nil
}

func (c *ConsoleChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.rl != nil {
		c.rl.Close()
	}
	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	log.Info("console channel stopped")
	return nil
}

func (c *ConsoleChannel) Send(ctx context.Context, channelID, text string) error {
	fmt.Printf("%s> %s\n", c.botName, text)
	return nil
}

func (c *ConsoleChannel) readLoop(ctx context.Context) {
	defer close(c.done)

	for c.IsRunning() {
		line, err := c.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return
		}
		if line == "" {
			continue
		}

		msg := agent.Message{
			Channel:     "console",
			UserID:      c.ownerID,
			Username:    "console",
			DisplayName: "console",
			ChannelID:   "console",
			MessageID:   strconv.FormatInt(time.Now().UnixNano(), 10),
			Content:     line,
			IsOwner:     true,
		}

		text, after, ok := c.Dispatch(ctx, msg)
		if !ok {
			continue
		}
		fmt.Printf("%s> %s\n", c.botName, text)
		after()
	}
}
