package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/botforge/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Handler is the registry's unit of storage: one handler function, its
// immutable metadata, and its mutable statistics.
type Handler struct {
	fn    tele.HandlerFunc
	meta  Metadata
	stats *Stats
}

// Metadata returns the metadata the handler was registered with.
func (h *Handler) Metadata() Metadata { return h.meta }

// Stats exposes the handler's invocation counters.
func (h *Handler) Stats() *Stats { return h.stats }

// Func returns the raw handler function, without statistics wrapping.
func (h *Handler) Func() tele.HandlerFunc { return h.fn }

// Identity returns the registry primary key for this handler.
func (h *Handler) Identity() string { return h.meta.Identity() }

// Wrapped returns the handler function instrumented with statistics
// accounting. Every invocation gets exactly one terminal outcome: a success
// updates the running average, an error or panic increments the error
// counter. Errors and panics propagate unchanged to the dispatch layer.
func (h *Handler) Wrapped() tele.HandlerFunc {
	stats := h.stats
	fn := h.fn
	return func(c tele.Context) error {
		start := time.Now()
		stats.begin(start)
		done := false
		defer func() {
			if !done {
				stats.fail()
			}
		}()
		if err := fn(c); err != nil {
			done = true
			stats.fail()
			return err
		}
		done = true
		// Timing covers the full span of the call, suspensions included.
		stats.succeed(time.Since(start))
		return nil
	}
}

// Registry is the single source of truth for handler registrations. It maps
// handler identities to their function, metadata, and statistics, and keeps a
// command/alias index plus a category index for lookup and help generation.
//
// All index mutations happen atomically under the write lock: a concurrent
// lookup never observes a command mapped to an absent identity.
type Registry struct {
	mu         sync.RWMutex
	handlers   map[string]*Handler
	order      []string
	commands   map[string]string // command or alias -> identity
	categories map[Category][]string
	catOrder   []Category // categories in first-seen order

	replace bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithReplace allows re-registering an identity, atomically replacing the
// previous entry and discarding its statistics. Without it, duplicate
// registration fails. Commands claimed by a different identity are rejected
// either way.
func WithReplace() Option {
	return func(r *Registry) { r.replace = true }
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		handlers:   make(map[string]*Handler),
		commands:   make(map[string]string),
		categories: make(map[Category][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates metadata, checks the command namespace, and inserts the
// handler into all indices. It returns the handler identity.
func (r *Registry) Register(fn tele.HandlerFunc, meta Metadata) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("register %q: %w", meta.Name, ErrNilHandler)
	}
	if err := meta.normalize(); err != nil {
		return "", err
	}

	h := &Handler{fn: fn, meta: meta, stats: &Stats{}}
	id := h.Identity()

	r.mu.Lock()
	defer r.mu.Unlock()

	// All conflict checks run before any index mutation so that a failed
	// registration leaves the registry untouched.
	if _, exists := r.handlers[id]; exists && !r.replace {
		logger.REG.LogAttrs(context.Background(), slog.LevelWarn, "register.duplicate",
			slog.String("identity", id),
		)
		return "", fmt.Errorf("register %q: identity %q: %w", meta.Name, id, ErrDuplicateHandler)
	}
	for _, key := range meta.commandKeys() {
		if owner, taken := r.commands[key]; taken && owner != id {
			logger.REG.LogAttrs(context.Background(), slog.LevelWarn, "register.command_conflict",
				slog.String("identity", id),
				slog.String("command", key),
				slog.String("owner", owner),
			)
			return "", fmt.Errorf("register %q: command %q owned by %q: %w", meta.Name, key, owner, ErrDuplicateCommand)
		}
	}

	if old, exists := r.handlers[id]; exists {
		r.replaceLocked(id, old, h)
		logger.REG.LogAttrs(context.Background(), slog.LevelInfo, "register.replaced",
			slog.String("identity", id),
		)
		return id, nil
	}

	r.handlers[id] = h
	r.order = append(r.order, id)
	for _, key := range meta.commandKeys() {
		r.commands[key] = id
	}
	r.appendCategoryLocked(meta.Category, id)

	logger.REG.LogAttrs(context.Background(), slog.LevelInfo, "register.handler",
		slog.String("identity", id),
		slog.String("type", string(meta.Type)),
		slog.String("category", string(meta.Category)),
	)
	return id, nil
}

// Unregister removes the handler from all indices. It reports whether the
// identity was present; removing an absent identity is not an error.
func (r *Registry) Unregister(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[identity]; !ok {
		return false
	}
	r.removeLocked(identity)
	logger.REG.LogAttrs(context.Background(), slog.LevelInfo, "unregister.handler",
		slog.String("identity", identity),
	)
	return true
}

// replaceLocked swaps the handler registered under identity while keeping
// its slot in the registration order, so All and help ordering stay stable
// across re-registration. The category slot moves only when the category
// actually changes.
func (r *Registry) replaceLocked(identity string, old, h *Handler) {
	for _, key := range old.meta.commandKeys() {
		if r.commands[key] == identity {
			delete(r.commands, key)
		}
	}
	if old.meta.Category != h.meta.Category {
		ids := r.categories[old.meta.Category]
		for i, id := range ids {
			if id == identity {
				r.categories[old.meta.Category] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		r.appendCategoryLocked(h.meta.Category, identity)
	}
	for _, key := range h.meta.commandKeys() {
		r.commands[key] = identity
	}
	r.handlers[identity] = h
}

func (r *Registry) appendCategoryLocked(cat Category, identity string) {
	if _, seen := r.categories[cat]; !seen {
		r.catOrder = append(r.catOrder, cat)
	}
	r.categories[cat] = append(r.categories[cat], identity)
}

func (r *Registry) removeLocked(identity string) {
	h := r.handlers[identity]
	delete(r.handlers, identity)
	for i, id := range r.order {
		if id == identity {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for _, key := range h.meta.commandKeys() {
		if r.commands[key] == identity {
			delete(r.commands, key)
		}
	}
	ids := r.categories[h.meta.Category]
	for i, id := range ids {
		if id == identity {
			r.categories[h.meta.Category] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// Get returns the handler registered under identity, or nil. Absence is a
// normal dispatch fallthrough condition, not an error.
func (r *Registry) Get(identity string) *Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[identity]
}

// GetByCommand resolves a command or alias with a case-sensitive exact match.
// It returns nil on a miss.
func (r *Registry) GetByCommand(command string) *Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.commands[command]
	if !ok {
		return nil
	}
	return r.handlers[id]
}

// IsRegistered reports whether an identity is present.
func (r *Registry) IsRegistered(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[identity]
	return ok
}

// All returns every registered handler in registration order.
func (r *Registry) All() []*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handler, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handlers[id])
	}
	return out
}

// ByCategory returns handlers of one category in registration order.
func (r *Registry) ByCategory(category Category) []*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.categories[category]
	out := make([]*Handler, 0, len(ids))
	for _, id := range ids {
		if h, ok := r.handlers[id]; ok {
			out = append(out, h)
		}
	}
	return out
}

// ByType returns handlers of one type in registration order.
func (r *Registry) ByType(t HandlerType) []*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handler, 0, len(r.order))
	for _, id := range r.order {
		if h := r.handlers[id]; h.meta.Type == t {
			out = append(out, h)
		}
	}
	return out
}

// Commands maps every primary command to its handler. Aliases are resolved
// through GetByCommand, not listed here.
func (r *Registry) Commands() map[string]*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Handler)
	for _, id := range r.order {
		h := r.handlers[id]
		if h.meta.Command != "" {
			out[h.meta.Command] = h
		}
	}
	return out
}

// Summary aggregates statistics across all registered handlers.
type Summary struct {
	TotalHandlers int
	TotalCalls    int64
	TotalErrors   int64
	ErrorRate     float64
	ByType        map[HandlerType]int
	ByCategory    map[Category]int
}

// StatsSummary computes registry-wide totals. ErrorRate is zero when no
// calls were recorded.
func (r *Registry) StatsSummary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{
		TotalHandlers: len(r.handlers),
		ByType:        make(map[HandlerType]int),
		ByCategory:    make(map[Category]int),
	}
	for _, h := range r.handlers {
		snap := h.stats.Snapshot()
		s.TotalCalls += snap.Calls
		s.TotalErrors += snap.Errors
		s.ByType[h.meta.Type]++
		s.ByCategory[h.meta.Category]++
	}
	if s.TotalCalls > 0 {
		s.ErrorRate = float64(s.TotalErrors) / float64(s.TotalCalls)
	}
	return s
}
