// Package router connects Telebot update streams to the handler registry.
// Commands, text, callbacks, and inline queries are resolved against the
// registry at dispatch time, so handlers registered or removed after the bot
// started are picked up without rebinding.
package router

import (
	"time"

	"github.com/m3rciful/botforge/core/logger"
	"github.com/m3rciful/botforge/core/sequence"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/middleware"
	"github.com/m3rciful/botforge/core/telegram/registry"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Options configures a Router.
type Options struct {
	Registry *registry.Registry
	// AdminID guards AdminOnly handlers; zero disables the check entirely.
	AdminID int64
	// Sequences, when set, gets first claim on text updates from users with
	// an active question flow.
	Sequences *sequence.Binder
	// OnRejected is sent to non-admins invoking admin-only handlers.
	// Empty means reject silently.
	OnRejected string
}

// Router dispatches updates through the registry.
type Router struct {
	reg       *registry.Registry
	adminID   int64
	sequences *sequence.Binder
	rejected  string
}

// New builds a Router from options.
func New(opts Options) *Router {
	return &Router{
		reg:       opts.Registry,
		adminID:   opts.AdminID,
		sequences: opts.Sequences,
		rejected:  opts.OnRejected,
	}
}

// Bind attaches the router's endpoints to the bot. Group middleware applies
// to every bound endpoint.
func (r *Router) Bind(bot *tele.Bot, mw ...tele.MiddlewareFunc) {
	g := bot.Group()
	g.Use(mw...)
	g.Handle(tele.OnText, r.HandleText)
	g.Handle(tele.OnCallback, r.HandleCallback)
	g.Handle(tele.OnQuery, r.HandleInline)
	for _, kind := range []string{
		tele.OnPhoto, tele.OnDocument, tele.OnVoice, tele.OnAudio,
		tele.OnVideo, tele.OnSticker, tele.OnLocation, tele.OnContact,
	} {
		g.Handle(kind, r.HandleMessage)
	}
}

// invoke runs one registry handler with statistics accounting, handler
// context enrichment, and a completion log line.
func (r *Router) invoke(c tele.Context, h *registry.Handler) error {
	meta := h.Metadata()
	if meta.Disabled {
		logger.Debug(tghelpers.BuildContext(c), "tg", "dispatch.disabled",
			slog.String("identity", h.Identity()),
		)
		return nil
	}
	if meta.AdminOnly && !r.isAdmin(c) {
		logger.Warn(tghelpers.BuildContext(c), "tg", "dispatch.denied",
			slog.String("identity", h.Identity()),
			slog.Int64("user_id", senderID(c)),
		)
		if r.rejected != "" {
			return tghelpers.SendText(c, r.rejected)
		}
		return nil
	}

	ctx := tghelpers.WithHandler(c, h.Identity())
	start := time.Now()
	err := h.Wrapped()(c)
	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("identity", h.Identity()),
		slog.String("outcome", logger.Status(err)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
		slog.Int("messages", msgs),
	}
	if kb {
		attrs = append(attrs, slog.Bool("kb", true))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Error(ctx, "tg", "dispatch.done", attrs...)
		return err
	}
	logger.Debug(ctx, "tg", "dispatch.done", attrs...)
	return nil
}

func (r *Router) isAdmin(c tele.Context) bool {
	return middleware.IsAdmin(c, r.adminID)
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
