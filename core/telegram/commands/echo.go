package commands

import (
	"strings"

	"github.com/m3rciful/botforge/core/telegram/format"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/registry"
	"github.com/m3rciful/botforge/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// registerEcho adds the demo echo surfaces: the /echo command and the
// inline-mode variant.
func registerEcho(rb *registry.Registrar) error {
	if _, err := rb.Command("echo", echoCommand, registry.CommandSpec{
		Description: "Repeat the given text back",
		Category:    registry.CategoryUtility,
		Usage:       "/echo <text>",
		Examples:    []string{"/echo hello"},
	}); err != nil {
		return err
	}
	_, err := rb.Handler("echo_inline", registry.TypeInline, echoInline, registry.HandlerSpec{
		Description: "Repeat the inline query back as an article result",
	})
	return err
}

func echoCommand(c tele.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args(), " "))
	if text == "" {
		return tghelpers.SendText(c, "Usage: /echo <text>")
	}
	escaped, err := format.EscapeMarkdown(text, format.MarkdownV2)
	if err != nil {
		return err
	}
	return tghelpers.SendMDV2(c, "_"+escaped+"_")
}

func echoInline(c tele.Context) error {
	q := c.Query()
	if q == nil || strings.TrimSpace(q.Text) == "" {
		return nil
	}
	result := ui.NewSimpleArticleResult("echo", "Say it back", q.Text)
	return c.Answer(&tele.QueryResponse{
		Results:   tele.Results{result},
		CacheTime: 60,
	})
}
