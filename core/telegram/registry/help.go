package registry

import (
	"strings"
	"unicode"
)

// knownCategories fixes the help precedence order; unregistered categories
// follow in first-seen registration order.
var knownCategories = []Category{
	CategoryCore,
	CategoryUser,
	CategoryAdmin,
	CategoryUtility,
	CategoryFun,
}

// HelpText renders the registered command handlers as a single display
// string. Handlers that are hidden or disabled never appear; categories with
// no qualifying handlers are omitted entirely. Filtered by category when the
// argument is non-empty.
func (r *Registry) HelpText(category Category) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	if category != "" {
		sb.WriteString(titleCase(string(category)) + " commands:\n")
	} else {
		sb.WriteString("Available commands:\n")
	}

	wrote := false
	for _, cat := range r.helpCategoryOrderLocked() {
		if category != "" && cat != category {
			continue
		}
		lines := r.helpLinesLocked(cat)
		if len(lines) == 0 {
			continue
		}
		wrote = true
		sb.WriteString("\n" + titleCase(string(cat)) + ":\n")
		for _, line := range lines {
			sb.WriteString(line + "\n")
		}
	}

	if !wrote {
		sb.WriteString("\nNo commands available.\n")
	}
	return sb.String()
}

// helpCategoryOrderLocked lists the known categories first, then any other
// registered category in first-seen order.
func (r *Registry) helpCategoryOrderLocked() []Category {
	known := make(map[Category]struct{}, len(knownCategories))
	order := make([]Category, 0, len(r.catOrder)+len(knownCategories))
	for _, cat := range knownCategories {
		known[cat] = struct{}{}
		order = append(order, cat)
	}
	for _, cat := range r.catOrder {
		if _, ok := known[cat]; !ok {
			order = append(order, cat)
		}
	}
	return order
}

// helpLinesLocked renders the visible command handlers of one category in
// registration order.
func (r *Registry) helpLinesLocked(cat Category) []string {
	var lines []string
	for _, id := range r.categories[cat] {
		h, ok := r.handlers[id]
		if !ok {
			continue
		}
		m := h.meta
		if m.Type != TypeCommand || m.Hidden || m.Disabled {
			continue
		}
		lines = append(lines, "  /"+m.Command+" - "+m.Description)
		if m.Usage != "" && m.Usage != "/"+m.Command {
			lines = append(lines, "    Usage: "+m.Usage)
		}
		if len(m.Examples) > 0 {
			lines = append(lines, "    Examples: "+strings.Join(m.Examples, ", "))
		}
	}
	return lines
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
