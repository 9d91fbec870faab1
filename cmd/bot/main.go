package main

import (
	"github.com/m3rciful/botforge/core/bootstrap"
	"github.com/m3rciful/botforge/core/cmd"
	tghelpers "github.com/m3rciful/botforge/core/telegram/helpers"
	"github.com/m3rciful/botforge/core/telegram/registry"

	tele "gopkg.in/telebot.v4"
)

func main() {
	cmd.Run(cmd.RunParams{
		BotName:       "Botforge",
		DefaultSurvey: "feedback",
		Setup:         registerHandlers,
	})
}

// registerHandlers adds the demo bot's own commands on top of the builtins.
func registerHandlers(app *bootstrap.App) error {
	_, err := app.Registrar.Command("greet", func(c tele.Context) error {
		name := "there"
		if u := c.Sender(); u != nil && u.FirstName != "" {
			name = u.FirstName
		}
		return tghelpers.SendText(c, "Hello, "+name+"!")
	}, registry.CommandSpec{
		Description: "Say hello",
		Category:    registry.CategoryFun,
		Aliases:     []string{"hi", "hello"},
	})
	return err
}
