package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/ironiklabs/ironbot/pkg/admin"
	"github.com/ironiklabs/ironbot/pkg/agent"
	"github.com/ironiklabs/ironbot/pkg/channels"
	"github.com/ironiklabs/ironbot/pkg/config"
	"github.com/ironiklabs/ironbot/pkg/memory"
	"github.com/ironiklabs/ironbot/pkg/observability"
	"github.com/ironiklabs/ironbot/pkg/providers"
	"github.com/ironiklabs/ironbot/pkg/ratelimit"
	"github.com/ironiklabs/ironbot/pkg/security"
	"github.com/ironiklabs/ironbot/pkg/tools"
	"github.com/ironiklabs/ironbot/pkg/voice"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: <data dir>/config.json)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug || os.Getenv("IRONBOT_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
	log.SetReportTimestamp(true)

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "error", err)
	}

	if err := run(*configPath); err != nil {
		log.Fatal("ironbot exited", "error", err)
	}
}

func run(configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".ironbot", "config.json")
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := memory.Open(cfg.DataDir())
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("memory store opened", "path", store.DBPath())

	completer, err := providers.NewOpenAIClient(cfg.Provider.APIKey, cfg.Provider.APIBase, cfg.Provider.Model)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("ironbot")
		go serveMetrics(cfg.Metrics.Addr)
	}

	manager := memory.NewManager(store, memory.NewExtractor(completer), memory.ManagerOptions{
		HistoryWindow:       cfg.Memory.HistoryWindow,
		PromptLimit:         cfg.Memory.PromptLimit,
		ConfidenceThreshold: cfg.Memory.ConfidenceThreshold,
		Metrics:             metrics,
	})

	var search *tools.WebSearch
	ws := cfg.Tools.WebSearch
	if ws.BraveAPIKey != "" || ws.SerperAPIKey != "" || ws.TavilyAPIKey != "" {
		search = tools.NewWebSearch(ws.BraveAPIKey, ws.SerperAPIKey, ws.TavilyAPIKey, ws.MaxResults)
	}

	var guard *security.PromptGuard
	if cfg.Security.GuardEnabled {
		guard = security.NewPromptGuard(cfg.Security.GuardSensitivity)
	}

	var limiter *ratelimit.Limiter
	if cfg.Security.RateLimitCalls > 0 {
		limiter = ratelimit.NewLimiter(cfg.Security.RateLimitCalls, time.Duration(cfg.Security.RateLimitWindow)*time.Second)
	}

	var tts *voice.ElevenLabsTTS
	if cfg.Voice.ElevenLabsAPIKey != "" {
		tts = voice.NewElevenLabsTTS(cfg.Voice.ElevenLabsAPIKey, cfg.Voice.VoiceID)
	}

	ag := agent.New(cfg, store, manager, completer, search, guard, limiter, metrics)
	commander := admin.NewCommander(cfg, store, ag, tts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	active, err := startChannels(ctx, cfg, ag, commander)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		log.Warn("no channels enabled, nothing to do")
		return nil
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, ch := range active {
		if err := ch.Stop(shutdownCtx); err != nil {
			log.Error("channel stop failed", "channel", ch.Name(), "error", err)
		}
	}
	return nil
}

func startChannels(ctx context.Context, cfg *config.Config, ag *agent.Agent, commander *admin.Commander) ([]channels.Channel, error) {
	var active []channels.Channel

	if cfg.Channels.Discord.Enabled {
		ch, err := channels.NewDiscordChannel(cfg.Channels.Discord, cfg.Bot.OwnerID, ag, commander)
		if err != nil {
			return nil, err
		}
		if err := ch.Start(ctx); err != nil {
			return nil, err
		}
		commander.RegisterSender(ch.Name(), ch)
		active = append(active, ch)
	}

	if cfg.Channels.Telegram.Enabled {
		ch, err := channels.NewTelegramChannel(cfg.Channels.Telegram, cfg.Bot.OwnerID, ag, commander)
		if err != nil {
			return nil, err
		}
		if err := ch.Start(ctx); err != nil {
			return nil, err
		}
		commander.RegisterSender(ch.Name(), ch)
		active = append(active, ch)
	}

	if cfg.Channels.Console.Enabled {
		ch := channels.NewConsoleChannel(cfg.Bot.OwnerID, cfg.Bot.Name, ag, commander)
		if err := ch.Start(ctx); err != nil {
			return nil, err
		}
		active = append(active, ch)
	}

	return active, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	log.Info("metrics server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server failed", "error", err)
	}
}
