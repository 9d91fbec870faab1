package middleware

import (
	"runtime/debug"

	"github.com/m3rciful/botforge/core/logger"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware is the outermost safety net: a panic escaping a handler
// is logged with its stack and swallowed so one bad update cannot take the
// bot down. Handler statistics account the panic before it reaches here.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				ctx := tghelpers.BuildContext(c)
				attrs := []slog.Attr{
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				}
				if h := logger.HandlerFrom(ctx); h != "" {
					attrs = append(attrs, slog.String("handler", h))
				}
				logger.Error(ctx, "tg", "update.panic", attrs...)
			}
		}()
		return next(c)
	}
}
