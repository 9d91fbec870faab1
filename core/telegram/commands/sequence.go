package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/botforge/core/sequence"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/registry"

	tele "gopkg.in/telebot.v4"
)

// registerSequenceCommands adds the question-flow entry points and hands the
// binder its turn to register the answer handlers.
func registerSequenceCommands(deps Deps) error {
	rb := deps.Registrar
	binder := deps.Sequences

	if _, err := rb.Command("survey", surveyHandler(deps), registry.CommandSpec{
		Description: "Start a question flow",
		Category:    registry.CategoryUser,
		Usage:       "/survey [name]",
		Examples:    []string{"/survey", "/survey feedback"},
	}); err != nil {
		return err
	}

	if _, err := rb.Command("cancel", cancelHandler(binder), registry.CommandSpec{
		Description: "Cancel the current question flow",
		Category:    registry.CategoryUser,
	}); err != nil {
		return err
	}

	if _, err := rb.Command("progress", progressHandler(binder), registry.CommandSpec{
		Description: "Show how far along the current flow is",
		Category:    registry.CategoryUser,
		Hidden:      true,
	}); err != nil {
		return err
	}

	return binder.Register(rb)
}

func surveyHandler(deps Deps) tele.HandlerFunc {
	binder := deps.Sequences
	return func(c tele.Context) error {
		name := deps.DefaultSurvey
		if args := c.Args(); len(args) > 0 {
			name = strings.ToLower(args[0])
		}
		if name == "" {
			available := binder.Service().Provider().Names()
			if len(available) == 0 {
				return tghelpers.SendText(c, "No flows are configured.")
			}
			return tghelpers.SendText(c, "Which flow? Try: /survey "+strings.Join(available, ", /survey "))
		}
		return binder.Begin(c, name)
	}
}

func cancelHandler(binder *sequence.Binder) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if _, err := binder.Service().Abandon(ctx, c.Sender().ID); err != nil {
			if errors.Is(err, sequence.ErrNoSession) {
				return tghelpers.SendText(c, "Nothing to cancel.")
			}
			return err
		}
		return tghelpers.SendText(c, "Flow cancelled.")
	}
}

func progressHandler(binder *sequence.Binder) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		p, err := binder.Service().Progress(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, sequence.ErrNoSession) {
				return tghelpers.SendText(c, "No flow in progress.")
			}
			return err
		}
		title := p.Title
		if title == "" {
			title = p.Sequence
		}
		return tghelpers.SendText(c, title+": "+progressBar(p.Answered, p.Total))
	}
}

func progressBar(answered, total int) string {
	if total <= 0 {
		return "done"
	}
	const width = 10
	filled := answered * width / total
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d/%d", bar, answered, total)
}
