// Package commands registers the built-in handler set every bot starts
// with: /start, /help, /stats, and the text, callback, and inline fallbacks.
package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m3rciful/botforge/core/buildinfo"
	"github.com/m3rciful/botforge/core/sequence"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/registry"

	tele "gopkg.in/telebot.v4"
)

// Deps carries everything the built-in handlers need.
type Deps struct {
	Registrar *registry.Registrar
	// BotName is shown in the /start greeting.
	BotName string
	// Sequences enables /survey and /cancel when set.
	Sequences *sequence.Binder
	// DefaultSurvey is the sequence /survey starts without an argument.
	DefaultSurvey string
}

// RegisterBuiltins wires the built-in handlers into the registry.
func RegisterBuiltins(deps Deps) error {
	rb := deps.Registrar
	reg := rb.Registry()

	if _, err := rb.Command("start", startHandler(deps), registry.CommandSpec{
		Description: "Show the welcome message",
		Category:    registry.CategoryCore,
	}); err != nil {
		return err
	}

	if _, err := rb.Command("help", helpHandler(reg), registry.CommandSpec{
		Description: "List available commands",
		Category:    registry.CategoryCore,
		Usage:       "/help [category]",
		Examples:    []string{"/help", "/help admin"},
	}); err != nil {
		return err
	}

	if _, err := rb.Command("stats", statsHandler(reg), registry.CommandSpec{
		Description: "Show handler usage statistics",
		Category:    registry.CategoryAdmin,
		AdminOnly:   true,
	}); err != nil {
		return err
	}

	if err := registerEcho(rb); err != nil {
		return err
	}

	if deps.Sequences != nil {
		if err := registerSequenceCommands(deps); err != nil {
			return err
		}
	}

	_, err := rb.TextHandler("unknown_text", func(c tele.Context) error {
		return tghelpers.SendText(c, "I did not understand that. Send /help to see what I can do.")
	}, registry.HandlerSpec{Description: "Fallback reply for unrecognized text"})
	return err
}

func startHandler(deps Deps) tele.HandlerFunc {
	name := deps.BotName
	if name == "" {
		name = "this bot"
	}
	return func(c tele.Context) error {
		greeting := fmt.Sprintf("Hi! I am %s (%s).\nSend /help to see available commands.", name, buildinfo.String())
		return tghelpers.SendText(c, greeting)
	}
}

func helpHandler(reg *registry.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		var cat registry.Category
		if args := c.Args(); len(args) > 0 {
			cat = registry.Category(strings.ToLower(args[0]))
		}
		return tghelpers.SendText(c, reg.HelpText(cat))
	}
}

func statsHandler(reg *registry.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, renderStats(reg))
	}
}

// renderStats builds the /stats report: registry totals first, then one
// line per handler that has been called, busiest first.
func renderStats(reg *registry.Registry) string {
	sum := reg.StatsSummary()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Handlers: %d\n", sum.TotalHandlers)
	fmt.Fprintf(&sb, "Calls: %d\n", sum.TotalCalls)
	fmt.Fprintf(&sb, "Errors: %d (%.1f%%)\n", sum.TotalErrors, sum.ErrorRate*100)

	type row struct {
		identity string
		snap     registry.Snapshot
	}
	var rows []row
	for _, h := range reg.All() {
		snap := h.Stats().Snapshot()
		if snap.Calls == 0 {
			continue
		}
		rows = append(rows, row{identity: h.Identity(), snap: snap})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].snap.Calls != rows[j].snap.Calls {
			return rows[i].snap.Calls > rows[j].snap.Calls
		}
		return rows[i].identity < rows[j].identity
	})

	if len(rows) > 0 {
		sb.WriteString("\nBy handler:\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "  %s: %d calls, %d errors, avg %s\n",
				r.identity, r.snap.Calls, r.snap.Errors, r.snap.AvgResponseTime.Round(time.Millisecond))
		}
	}
	return sb.String()
}
