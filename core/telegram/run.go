package telegram

import (
	"context"
	"fmt"
	"sort"
	"time"

	coreconfig "github.com/m3rciful/botforge/core/config"
	"github.com/m3rciful/botforge/core/logger"
	"github.com/m3rciful/botforge/core/sequence"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/registry"
	"github.com/m3rciful/botforge/core/telegram/router"
	"github.com/m3rciful/botforge/core/telegram/sender"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RunOptions wires a configured bot: the registry supplies the handlers,
// the optional sequence binder supplies conversation flows.
type RunOptions struct {
	Config    *coreconfig.Config
	Registry  *registry.Registry
	Sequences *sequence.Binder
}

// NewBot constructs the Telebot instance with the tuned HTTP client, the
// configured poller, and an error hook that logs through the structured
// logger.
func NewBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Client: BuildHTTPClient(),
		Poller: BuildPoller(PollerOptions{
			RunMode:                cfg.Telegram.RunMode,
			LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
			Webhook: WebhookOptions{
				Listen: cfg.Webhook.Listen,
				Port:   cfg.Webhook.Port,
				URL:    cfg.Webhook.URL,
			},
		}),
		OnError: func(err error, c tele.Context) {
			ctx := logger.Background()
			if c != nil {
				ctx = tghelpers.BuildContext(c)
			}
			logger.Error(ctx, "tg", "update.error",
				slog.String("err", err.Error()),
			)
		},
	}

	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return bot, nil
}

// Run builds the bot, binds the router, publishes the command menu, and
// blocks until ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config

	bot, err := NewBot(cfg)
	if err != nil {
		return err
	}

	dispatcher := sender.NewDispatcher(sender.Options{})
	tghelpers.SetDispatcher(dispatcher)
	defer dispatcher.Close()

	r := router.New(router.Options{
		Registry:   opts.Registry,
		AdminID:    cfg.Telegram.AdminID,
		Sequences:  opts.Sequences,
		OnRejected: "This command is restricted.",
	})
	r.Bind(bot, DefaultMiddlewares(cfg)...)

	if err := InitBotCommands(bot, opts.Registry); err != nil {
		return err
	}

	mode := cfg.Telegram.RunMode
	attrs := []slog.Attr{
		slog.String("mode", mode),
		slog.String("username", bot.Me.Username),
	}
	if mode == coreconfig.RunModeWebhook {
		attrs = append(attrs,
			slog.String("listen", fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port)),
			slog.String("public_url", cfg.Webhook.URL),
		)
	}
	logger.Info(logger.Background(), "tg", "bot.start", attrs...)

	go func() {
		<-ctx.Done()
		bot.Stop()
	}()
	bot.Start()

	logger.Info(logger.Background(), "tg", "bot.stop")
	return nil
}

// InitBotCommands publishes the visible command menu to Telegram: enabled,
// non-hidden command handlers, sorted for a stable menu.
func InitBotCommands(bot *tele.Bot, reg *registry.Registry) error {
	var cmds []tele.Command
	for name, h := range reg.Commands() {
		m := h.Metadata()
		if m.Hidden || m.Disabled {
			continue
		}
		cmds = append(cmds, tele.Command{Text: name, Description: m.Description})
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Text < cmds[j].Text })

	start := time.Now()
	if err := bot.SetCommands(cmds); err != nil {
		return fmt.Errorf("publish command menu: %w", err)
	}
	logger.TWire.Debug("command menu published",
		slog.String("event", "bot.commands"),
		slog.Int("count", len(cmds)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
