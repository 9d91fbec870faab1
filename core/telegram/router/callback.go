package router

import (
	"github.com/m3rciful/botforge/core/logger"
	"github.com/m3rciful/botforge/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/registry"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// HandleCallback resolves callback updates by their key: the registry
// callback handler whose name equals the key gets the update. Unresolvable
// callbacks are acknowledged so the client spinner stops.
func (r *Router) HandleCallback(c tele.Context) error {
	key := callbacks.CallbackKey(c)
	if key != "" {
		if h := r.callbackHandler(key); h != nil {
			return r.invoke(c, h)
		}
	}
	logger.Debug(tghelpers.BuildContext(c), "tg", "dispatch.unknown_callback",
		slog.String("cb_key", logger.SanitizeLimit(key, 128)),
	)
	return c.Respond()
}

// HandleInline routes inline queries to the first registered inline handler.
func (r *Router) HandleInline(c tele.Context) error {
	if hs := r.reg.ByType(registry.TypeInline); len(hs) > 0 {
		return r.invoke(c, hs[0])
	}
	return nil
}

func (r *Router) callbackHandler(key string) *registry.Handler {
	return r.reg.Get(string(registry.TypeCallback) + "_" + key)
}
