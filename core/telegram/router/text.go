package router

import (
	"strings"

	"github.com/m3rciful/botforge/core/logger"
	"github.com/m3rciful/botforge/core/sequence"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/registry"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// HandleText routes text updates. Slash commands resolve through the
// registry's command index; other text goes to the active question flow
// first, then to registered text handlers, then to catch-all message
// handlers.
func (r *Router) HandleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		return r.dispatchCommand(c, text)
	}

	if r.sequences != nil && r.sequences.ActiveFor(c) {
		if h := r.firstText(func(h *registry.Handler) bool {
			return h.Metadata().Name == sequence.TextHandlerName
		}); h != nil {
			return r.invoke(c, h)
		}
	}

	if h := r.firstText(func(h *registry.Handler) bool {
		return h.Metadata().Name != sequence.TextHandlerName
	}); h != nil {
		return r.invoke(c, h)
	}
	return r.HandleMessage(c)
}

// HandleMessage routes non-text message updates to the first registered
// catch-all handler.
func (r *Router) HandleMessage(c tele.Context) error {
	if hs := r.reg.ByType(registry.TypeMessage); len(hs) > 0 {
		return r.invoke(c, hs[0])
	}
	return nil
}

// dispatchCommand resolves "/name@bot args" against the command index.
// Unknown commands fall through silently; group chats are full of commands
// meant for other bots.
func (r *Router) dispatchCommand(c tele.Context, text string) error {
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		// Ignore commands addressed to other bots.
		if bot, ok := c.Bot().(*tele.Bot); ok && bot != nil && bot.Me != nil && !strings.EqualFold(name[at+1:], bot.Me.Username) {
			return nil
		}
		name = name[:at]
	}

	h := r.reg.GetByCommand(name)
	if h == nil {
		logger.Debug(tghelpers.BuildContext(c), "tg", "dispatch.unknown_command",
			slog.String("command", logger.SanitizeLimit(name, 64)),
		)
		return nil
	}
	return r.invoke(c, h)
}

func (r *Router) firstText(match func(*registry.Handler) bool) *registry.Handler {
	for _, h := range r.reg.ByType(registry.TypeText) {
		if match(h) {
			return h
		}
	}
	return nil
}
