package registry

import (
	"fmt"
	"regexp"
)

// HandlerType identifies the kind of inbound update a handler responds to.
type HandlerType string

const (
	// TypeCommand handles slash commands.
	TypeCommand HandlerType = "command"
	// TypeText handles free-form text messages.
	TypeText HandlerType = "text"
	// TypeMessage handles any message update, including media.
	TypeMessage HandlerType = "message"
	// TypeCallback handles inline keyboard callbacks.
	TypeCallback HandlerType = "callback"
	// TypeInline handles inline queries.
	TypeInline HandlerType = "inline"
)

// Category groups handlers for help output and admin segregation.
// It is an open enumeration; unknown values are rendered after the known ones.
type Category string

const (
	// CategoryCore holds essential bot commands such as /start and /help.
	CategoryCore Category = "core"
	// CategoryUser holds regular user interaction commands.
	CategoryUser Category = "user"
	// CategoryAdmin holds administrative commands.
	CategoryAdmin Category = "admin"
	// CategoryUtility holds utility and helper commands.
	CategoryUtility Category = "utility"
	// CategoryFun holds entertainment commands.
	CategoryFun Category = "fun"
)

var commandNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Metadata describes a handler at registration time. It is treated as
// immutable once the handler is registered.
type Metadata struct {
	Name     string
	Type     HandlerType
	Category Category

	// Command is the primary command name without the slash prefix.
	// Only meaningful for TypeCommand handlers.
	Command  string
	Aliases  []string
	Usage    string
	Examples []string

	Description string

	// Disabled excludes the handler from dispatch and help output.
	// The zero value keeps a freshly registered handler live.
	Disabled  bool
	Hidden    bool
	AdminOnly bool

	Tags    []string
	Version string
	Author  string
}

// Identity derives the registry primary key for this metadata.
func (m Metadata) Identity() string {
	if m.Command != "" {
		return "cmd_" + m.Command
	}
	return string(m.Type) + "_" + m.Name
}

// commandKeys lists every command-namespace key the metadata claims.
func (m Metadata) commandKeys() []string {
	if m.Command == "" {
		return nil
	}
	keys := make([]string, 0, len(m.Aliases)+1)
	keys = append(keys, m.Command)
	keys = append(keys, m.Aliases...)
	return keys
}

func (m *Metadata) normalize() error {
	if m.Name == "" {
		return fmt.Errorf("handler metadata: %w", ErrMissingName)
	}
	if m.Type == "" {
		return fmt.Errorf("handler %q: %w", m.Name, ErrMissingType)
	}
	if m.Category == "" {
		m.Category = CategoryUser
	}
	if m.Version == "" {
		m.Version = "1.0.0"
	}
	if m.Type == TypeCommand {
		if m.Command == "" {
			return fmt.Errorf("handler %q: %w", m.Name, ErrMissingCommand)
		}
	} else if m.Command != "" {
		return fmt.Errorf("handler %q: command set on %s handler: %w", m.Name, m.Type, ErrUnexpectedCommand)
	}
	if m.Command != "" {
		if !commandNameRe.MatchString(m.Command) {
			return fmt.Errorf("handler %q: command %q: %w", m.Name, m.Command, ErrInvalidCommandName)
		}
		for _, alias := range m.Aliases {
			if !commandNameRe.MatchString(alias) {
				return fmt.Errorf("handler %q: alias %q: %w", m.Name, alias, ErrInvalidCommandName)
			}
		}
		if m.Usage == "" {
			m.Usage = "/" + m.Command
		}
	}
	return nil
}
