package sequence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/botforge/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/keyboard"
	"github.com/m3rciful/botforge/core/telegram/registry"

	tele "gopkg.in/telebot.v4"
)

const (
	// CallbackOption is the callback key for choice question buttons.
	CallbackOption = "seq_opt"
	// CallbackCancel is the callback key for the inline cancel button.
	CallbackCancel = "seq_cancel"
	// TextHandlerName is the registry name of the binder's text handler.
	TextHandlerName = "sequence_answer"
)

// Binder connects a sequence Service to Telegram: it renders question
// prompts and registers the handlers that feed incoming text and callback
// answers into the service.
type Binder struct {
	svc *Service
}

// NewBinder wraps a service for Telegram dispatch.
func NewBinder(svc *Service) *Binder {
	return &Binder{svc: svc}
}

// Service returns the wrapped sequence service.
func (b *Binder) Service() *Service { return b.svc }

// Register adds the binder's text and callback handlers to the registry.
func (b *Binder) Register(rb *registry.Registrar) error {
	if _, err := rb.TextHandler(TextHandlerName, b.HandleText, registry.HandlerSpec{
		Description: "Feeds text replies into the active question flow",
	}); err != nil {
		return err
	}
	// Callback handlers are named by their callback key so the dispatcher
	// can resolve button presses straight from the registry.
	if _, err := rb.Handler(CallbackOption, registry.TypeCallback, b.HandleCallback, registry.HandlerSpec{
		Description: "Feeds choice button presses into the active question flow",
	}); err != nil {
		return err
	}
	_, err := rb.Handler(CallbackCancel, registry.TypeCallback, b.HandleCancel, registry.HandlerSpec{
		Description: "Cancels the active question flow from the inline button",
	})
	return err
}

// ActiveFor reports whether the sender of the update has an active session.
// Dispatch layers use it to route text updates to the binder first.
func (b *Binder) ActiveFor(c tele.Context) bool {
	if c.Sender() == nil {
		return false
	}
	_, err := b.svc.Active(tghelpers.BuildContext(c), c.Sender().ID)
	return err == nil
}

// Begin starts a sequence for the current user and sends the first prompt.
func (b *Binder) Begin(c tele.Context, name string) error {
	ctx := tghelpers.BuildContext(c)
	sess, q, err := b.svc.Start(ctx, c.Sender().ID, c.Chat().ID, name)
	switch {
	case errors.Is(err, ErrUnknownSequence):
		return tghelpers.SendText(c, fmt.Sprintf("Unknown flow %q.", name))
	case errors.Is(err, ErrSessionActive):
		return tghelpers.SendText(c, "You already have a flow in progress. Send /cancel to abandon it first.")
	case err != nil:
		return err
	}
	if q == nil {
		return b.completedMessage(c, sess)
	}
	if greeting := b.welcomeText(sess); greeting != "" {
		if err := tghelpers.SendText(c, greeting); err != nil {
			return err
		}
	}
	return b.Prompt(c, q)
}

// HandleText consumes a text message as an answer to the active session.
// Without an active session it reports false and sends nothing, letting the
// router fall through to other text handlers.
func (b *Binder) HandleText(c tele.Context) error {
	handled, err := b.ConsumeText(c)
	if err != nil || handled {
		return err
	}
	return nil
}

// ConsumeText feeds the message text into the active session. It reports
// whether a session consumed the message.
func (b *Binder) ConsumeText(c tele.Context) (bool, error) {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	if _, err := b.svc.Active(ctx, userID); err != nil {
		if errors.Is(err, ErrNoSession) {
			return false, nil
		}
		return false, err
	}
	sess, q, err := b.svc.Answer(ctx, userID, c.Text())
	switch {
	case errors.Is(err, ErrInvalidAnswer):
		if sendErr := tghelpers.SendText(c, rejectionText(err)); sendErr != nil {
			return true, sendErr
		}
		return true, b.Prompt(c, q)
	case err != nil:
		return true, err
	case q == nil:
		return true, b.completedMessage(c, sess)
	default:
		return true, b.Prompt(c, q)
	}
}

// HandleCallback consumes a choice button press as an answer.
func (b *Binder) HandleCallback(c tele.Context) error {
	if err := c.Respond(); err != nil {
		return err
	}
	ctx := tghelpers.BuildContext(c)
	sess, q, err := b.svc.Answer(ctx, c.Sender().ID, callbacks.CallbackPayload(c))
	switch {
	case errors.Is(err, ErrNoSession):
		return tghelpers.SendText(c, "This flow is no longer active.")
	case errors.Is(err, ErrInvalidAnswer):
		if sendErr := tghelpers.SendText(c, rejectionText(err)); sendErr != nil {
			return sendErr
		}
		return b.Prompt(c, q)
	case err != nil:
		return err
	case q == nil:
		return b.completedMessage(c, sess)
	default:
		return b.Prompt(c, q)
	}
}

// HandleCancel abandons the active session from the inline cancel button.
func (b *Binder) HandleCancel(c tele.Context) error {
	if err := c.Respond(); err != nil {
		return err
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := b.svc.Abandon(ctx, c.Sender().ID); err != nil {
		if errors.Is(err, ErrNoSession) {
			return tghelpers.SendText(c, "Nothing to cancel.")
		}
		return err
	}
	return tghelpers.SendText(c, "Flow cancelled.")
}

// Prompt sends the question to the chat, with inline options for choice
// questions and a cancel button on every prompt.
func (b *Binder) Prompt(c tele.Context, q *Question) error {
	text := q.Text
	if q.Optional {
		text += "\n(optional, send \"skip\" to pass)"
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Btn
	switch q.Type {
	case QuestionChoice:
		for _, opt := range q.Options {
			rows = append(rows, markup.Data(opt.Label, CallbackOption, opt.Value))
		}
	case QuestionConfirm:
		rows = append(rows,
			markup.Data("Yes", CallbackOption, "yes"),
			markup.Data("No", CallbackOption, "no"),
		)
	}
	rows = append(rows, keyboard.CancelButton(markup, CallbackCancel))
	markup.InlineKeyboard = keyboard.ToInlineKeyboard(keyboard.ChunkButtons(rows, 2))

	return tghelpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

func (b *Binder) welcomeText(sess *Session) string {
	def := b.svc.Provider().Get(sess.Definition)
	if def == nil {
		return ""
	}
	if def.WelcomeMessage != "" {
		return def.WelcomeMessage
	}
	return def.Title
}

func (b *Binder) completionText(sess *Session) string {
	if def := b.svc.Provider().Get(sess.Definition); def != nil && def.CompletionMessage != "" {
		return def.CompletionMessage
	}
	return fmt.Sprintf("Done! Recorded %d answers.", len(sess.Answers))
}

func (b *Binder) completedMessage(c tele.Context, sess *Session) error {
	return tghelpers.SendText(c, b.completionText(sess))
}

func rejectionText(err error) string {
	reason := strings.TrimPrefix(err.Error(), ErrInvalidAnswer.Error()+": ")
	return "That answer does not work: " + reason + "."
}
