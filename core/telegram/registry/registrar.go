package registry

import (
	tele "gopkg.in/telebot.v4"
)

// Registrar is the ergonomic registration front for a Registry instance. It
// builds Metadata from a spec, validates it immediately so that wiring
// mistakes surface at startup, and registers the handler. The raw function is
// stored unwrapped and stays independently callable.
type Registrar struct {
	reg *Registry
}

// NewRegistrar binds a Registrar to a registry instance.
func NewRegistrar(reg *Registry) *Registrar {
	return &Registrar{reg: reg}
}

// Registry returns the bound registry.
func (rb *Registrar) Registry() *Registry { return rb.reg }

// CommandSpec collects the optional metadata of a command registration.
type CommandSpec struct {
	Description string
	Category    Category
	Usage       string
	Aliases     []string
	Examples    []string
	AdminOnly   bool
	Hidden      bool
	Disabled    bool
	Tags        []string
	Version     string
	Author      string
}

// HandlerSpec collects the optional metadata of a non-command registration.
type HandlerSpec struct {
	Description string
	Category    Category
	AdminOnly   bool
	Disabled    bool
	Tags        []string
	Version     string
	Author      string
}

// Command registers a command handler under name. The command name doubles
// as the handler name.
func (rb *Registrar) Command(name string, fn tele.HandlerFunc, spec CommandSpec) (string, error) {
	return rb.reg.Register(fn, Metadata{
		Name:        name,
		Type:        TypeCommand,
		Category:    spec.Category,
		Command:     name,
		Aliases:     spec.Aliases,
		Usage:       spec.Usage,
		Examples:    spec.Examples,
		Description: spec.Description,
		Disabled:    spec.Disabled,
		Hidden:      spec.Hidden,
		AdminOnly:   spec.AdminOnly,
		Tags:        spec.Tags,
		Version:     spec.Version,
		Author:      spec.Author,
	})
}

// TextHandler registers a free-text handler. Text handlers never show up in
// help output, so they are registered hidden.
func (rb *Registrar) TextHandler(name string, fn tele.HandlerFunc, spec HandlerSpec) (string, error) {
	return rb.Handler(name, TypeText, fn, spec)
}

// MessageHandler registers a catch-all message handler, hidden like text
// handlers.
func (rb *Registrar) MessageHandler(name string, fn tele.HandlerFunc, spec HandlerSpec) (string, error) {
	return rb.Handler(name, TypeMessage, fn, spec)
}

// Handler registers a handler of an arbitrary non-command type. Callback and
// inline handlers are resolved by name at dispatch time.
func (rb *Registrar) Handler(name string, t HandlerType, fn tele.HandlerFunc, spec HandlerSpec) (string, error) {
	return rb.reg.Register(fn, Metadata{
		Name:        name,
		Type:        t,
		Category:    spec.Category,
		Description: spec.Description,
		Disabled:    spec.Disabled,
		Hidden:      true,
		AdminOnly:   spec.AdminOnly,
		Tags:        spec.Tags,
		Version:     spec.Version,
		Author:      spec.Author,
	})
}

// MustCommand is Command that panics on registration failure. Intended for
// startup wiring where a registration error is fatal.
func (rb *Registrar) MustCommand(name string, fn tele.HandlerFunc, spec CommandSpec) string {
	id, err := rb.Command(name, fn, spec)
	if err != nil {
		panic(err)
	}
	return id
}

// MustHandler is Handler that panics on registration failure.
func (rb *Registrar) MustHandler(name string, t HandlerType, fn tele.HandlerFunc, spec HandlerSpec) string {
	id, err := rb.Handler(name, t, fn, spec)
	if err != nil {
		panic(err)
	}
	return id
}
