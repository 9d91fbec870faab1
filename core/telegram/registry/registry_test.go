package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterDerivesIdentity(t *testing.T) {
	type TestCase struct {
		description string
		meta        Metadata
		want        string
	}

	testCases := []TestCase{
		{
			description: "command identity uses cmd prefix",
			meta:        Metadata{Name: "start", Type: TypeCommand, Command: "start"},
			want:        "cmd_start",
		},
		{
			description: "text identity uses type prefix",
			meta:        Metadata{Name: "echo", Type: TypeText},
			want:        "text_echo",
		},
		{
			description: "callback identity uses type prefix",
			meta:        Metadata{Name: "confirm", Type: TypeCallback},
			want:        "callback_confirm",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			reg := New()
			id, err := reg.Register(noop, testCase.meta)

			require.NoError(t, err)
			assert.Equal(t, testCase.want, id)
			require.NotNil(t, reg.Get(id))
		})
	}
}

func TestRegisterPreservesMetadata(t *testing.T) {
	reg := New()
	meta := Metadata{
		Name:        "greet",
		Type:        TypeCommand,
		Category:    CategoryFun,
		Command:     "greet",
		Aliases:     []string{"hi", "hello"},
		Usage:       "/greet <name>",
		Examples:    []string{"/greet Bob"},
		Description: "Send a greeting",
		Tags:        []string{"social"},
		Version:     "2.0.0",
		Author:      "core team",
	}

	id, err := reg.Register(noop, meta)
	require.NoError(t, err)

	got := reg.Get(id).Metadata()
	assert.Equal(t, meta, got)
}

func TestRegisterDefaultsToLiveHandler(t *testing.T) {
	reg := New()

	id, err := reg.Register(noop, Metadata{
		Name: "ping", Type: TypeCommand, Command: "ping",
		Description: "Liveness check",
	})
	require.NoError(t, err)

	meta := reg.Get(id).Metadata()
	assert.False(t, meta.Disabled, "zero-value metadata must stay dispatchable")
	assert.Contains(t, reg.HelpText(""), "/ping")
}

func TestRegisterValidation(t *testing.T) {
	type TestCase struct {
		description string
		meta        Metadata
		wantErr     error
	}

	testCases := []TestCase{
		{
			description: "missing name",
			meta:        Metadata{Type: TypeCommand, Command: "x"},
			wantErr:     ErrMissingName,
		},
		{
			description: "missing type",
			meta:        Metadata{Name: "x"},
			wantErr:     ErrMissingType,
		},
		{
			description: "command handler without command",
			meta:        Metadata{Name: "x", Type: TypeCommand},
			wantErr:     ErrMissingCommand,
		},
		{
			description: "command on text handler",
			meta:        Metadata{Name: "x", Type: TypeText, Command: "x"},
			wantErr:     ErrUnexpectedCommand,
		},
		{
			description: "command starting with digit",
			meta:        Metadata{Name: "x", Type: TypeCommand, Command: "1start"},
			wantErr:     ErrInvalidCommandName,
		},
		{
			description: "command with space",
			meta:        Metadata{Name: "x", Type: TypeCommand, Command: "do it"},
			wantErr:     ErrInvalidCommandName,
		},
		{
			description: "invalid alias",
			meta:        Metadata{Name: "x", Type: TypeCommand, Command: "valid", Aliases: []string{"-bad"}},
			wantErr:     ErrInvalidCommandName,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			reg := New()
			_, err := reg.Register(noop, testCase.meta)

			require.Error(t, err)
			assert.ErrorIs(t, err, testCase.wantErr)
			assert.Empty(t, reg.All())
		})
	}
}

func TestRegisterNilFunction(t *testing.T) {
	reg := New()
	_, err := reg.Register(nil, Metadata{Name: "x", Type: TypeText})

	require.ErrorIs(t, err, ErrNilHandler)
}

func TestRegisterFillsDefaults(t *testing.T) {
	reg := New()
	id, err := reg.Register(noop, Metadata{Name: "ping", Type: TypeCommand, Command: "ping"})
	require.NoError(t, err)

	meta := reg.Get(id).Metadata()
	assert.Equal(t, CategoryUser, meta.Category)
	assert.Equal(t, "/ping", meta.Usage)
	assert.Equal(t, "1.0.0", meta.Version)
}

func TestAliasesResolveToSameHandler(t *testing.T) {
	reg := New()
	id, err := reg.Register(noop, Metadata{
		Name: "greet", Type: TypeCommand, Command: "greet",
		Aliases: []string{"hi", "hello"},
	})
	require.NoError(t, err)

	for _, cmd := range []string{"greet", "hi", "hello"} {
		h := reg.GetByCommand(cmd)
		require.NotNil(t, h, cmd)
		assert.Equal(t, id, h.Identity())
	}
}

func TestGetByCommandMissReturnsNil(t *testing.T) {
	reg := New()
	assert.Nil(t, reg.GetByCommand("missing"))
	assert.Nil(t, reg.Get("cmd_missing"))
}

func TestGetByCommandIsCaseSensitive(t *testing.T) {
	reg := New()
	_, err := reg.Register(noop, Metadata{Name: "Start", Type: TypeCommand, Command: "Start"})
	require.NoError(t, err)

	assert.NotNil(t, reg.GetByCommand("Start"))
	assert.Nil(t, reg.GetByCommand("start"))
}

func TestDuplicateCommandFailsWithoutPartialState(t *testing.T) {
	reg := New()
	calls := 0
	first := func(tele.Context) error { calls++; return nil }

	_, err := reg.Register(first, Metadata{Name: "weather", Type: TypeCommand, Command: "weather"})
	require.NoError(t, err)

	_, err = reg.Register(noop, Metadata{
		Name: "forecast", Type: TypeCommand, Command: "forecast",
		Aliases: []string{"weather"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	// Failed registration must not leave the alias owner's other keys behind.
	assert.Nil(t, reg.GetByCommand("forecast"))
	assert.False(t, reg.IsRegistered("cmd_forecast"))

	h := reg.GetByCommand("weather")
	require.NotNil(t, h)
	require.NoError(t, h.Func()(nil))
	assert.Equal(t, 1, calls)
	assert.Len(t, reg.All(), 1)
}

func TestDuplicateIdentityDefaultsToError(t *testing.T) {
	reg := New()
	_, err := reg.Register(noop, Metadata{Name: "start", Type: TypeCommand, Command: "start"})
	require.NoError(t, err)

	_, err = reg.Register(noop, Metadata{Name: "start", Type: TypeCommand, Command: "start"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateHandler) || errors.Is(err, ErrDuplicateCommand))
	assert.Len(t, reg.All(), 1)
}

func TestReplacePolicyDiscardsOldEntry(t *testing.T) {
	reg := New(WithReplace())

	id, err := reg.Register(noop, Metadata{
		Name: "start", Type: TypeCommand, Command: "start",
		Aliases: []string{"begin"}, Description: "old",
	})
	require.NoError(t, err)
	require.NoError(t, reg.Get(id).Wrapped()(nil))

	id2, err := reg.Register(noop, Metadata{
		Name: "start", Type: TypeCommand, Command: "start",
		Description: "new",
	})
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	h := reg.Get(id)
	assert.Equal(t, "new", h.Metadata().Description)
	// Stats of the replaced entry are discarded.
	assert.Zero(t, h.Stats().Snapshot().Calls)
	// The old alias no longer resolves.
	assert.Nil(t, reg.GetByCommand("begin"))
	assert.Len(t, reg.All(), 1)
}

func TestReplacePolicyKeepsRegistrationOrder(t *testing.T) {
	reg := New(WithReplace())

	_, err := reg.Register(noop, Metadata{Name: "start", Type: TypeCommand, Command: "start", Category: CategoryCore})
	require.NoError(t, err)
	_, err = reg.Register(noop, Metadata{Name: "stop", Type: TypeCommand, Command: "stop", Category: CategoryCore})
	require.NoError(t, err)

	_, err = reg.Register(noop, Metadata{
		Name: "start", Type: TypeCommand, Command: "start", Category: CategoryCore,
		Description: "replaced",
	})
	require.NoError(t, err)

	var order []string
	for _, h := range reg.All() {
		order = append(order, h.Identity())
	}
	assert.Equal(t, []string{"cmd_start", "cmd_stop"}, order)

	var core []string
	for _, h := range reg.ByCategory(CategoryCore) {
		core = append(core, h.Identity())
	}
	assert.Equal(t, []string{"cmd_start", "cmd_stop"}, core)
	assert.Equal(t, "replaced", reg.Get("cmd_start").Metadata().Description)
}

func TestReplacePolicyStillRejectsForeignCommand(t *testing.T) {
	reg := New(WithReplace())
	_, err := reg.Register(noop, Metadata{Name: "start", Type: TypeCommand, Command: "start"})
	require.NoError(t, err)

	_, err = reg.Register(noop, Metadata{
		Name: "restart", Type: TypeCommand, Command: "restart",
		Aliases: []string{"start"},
	})
	assert.ErrorIs(t, err, ErrDuplicateCommand)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	reg := New()
	id, err := reg.Register(noop, Metadata{
		Name: "greet", Type: TypeCommand, Command: "greet",
		Aliases: []string{"hi"},
	})
	require.NoError(t, err)

	assert.True(t, reg.Unregister(id))
	assert.Nil(t, reg.Get(id))
	assert.Nil(t, reg.GetByCommand("greet"))
	assert.Nil(t, reg.GetByCommand("hi"))
	assert.Empty(t, reg.ByCategory(CategoryUser))

	assert.False(t, reg.Unregister(id))
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	reg := New()
	names := []string{"charlie", "alpha", "bravo"}
	for _, name := range names {
		_, err := reg.Register(noop, Metadata{Name: name, Type: TypeCommand, Command: name})
		require.NoError(t, err)
	}

	all := reg.All()
	require.Len(t, all, 3)
	for i, name := range names {
		assert.Equal(t, name, all[i].Metadata().Name)
	}
}

func TestByCategoryAndByType(t *testing.T) {
	reg := New()
	_, err := reg.Register(noop, Metadata{Name: "start", Type: TypeCommand, Command: "start", Category: CategoryCore})
	require.NoError(t, err)
	_, err = reg.Register(noop, Metadata{Name: "echo", Type: TypeText, Category: CategoryCore})
	require.NoError(t, err)
	_, err = reg.Register(noop, Metadata{Name: "ban", Type: TypeCommand, Command: "ban", Category: CategoryAdmin})
	require.NoError(t, err)

	core := reg.ByCategory(CategoryCore)
	require.Len(t, core, 2)
	assert.Equal(t, "start", core[0].Metadata().Name)

	commands := reg.ByType(TypeCommand)
	require.Len(t, commands, 2)
	assert.Equal(t, "ban", commands[1].Metadata().Name)

	assert.Empty(t, reg.ByCategory(CategoryFun))
	assert.Empty(t, reg.ByType(TypeInline))
}

func TestCommandsExcludesAliases(t *testing.T) {
	reg := New()
	_, err := reg.Register(noop, Metadata{
		Name: "greet", Type: TypeCommand, Command: "greet",
		Aliases: []string{"hi"},
	})
	require.NoError(t, err)
	_, err = reg.Register(noop, Metadata{Name: "echo", Type: TypeText})
	require.NoError(t, err)

	cmds := reg.Commands()
	require.Len(t, cmds, 1)
	require.Contains(t, cmds, "greet")
	assert.NotContains(t, cmds, "hi")
}

func TestStatsSummaryEmptyRegistry(t *testing.T) {
	reg := New()
	summary := reg.StatsSummary()

	assert.Zero(t, summary.TotalHandlers)
	assert.Zero(t, summary.TotalCalls)
	assert.Zero(t, summary.TotalErrors)
	assert.Zero(t, summary.ErrorRate)
}

func TestStatsSummaryAggregates(t *testing.T) {
	reg := New()
	boom := errors.New("boom")

	okID, err := reg.Register(noop, Metadata{Name: "start", Type: TypeCommand, Command: "start", Category: CategoryCore})
	require.NoError(t, err)
	failID, err := reg.Register(func(tele.Context) error { return boom }, Metadata{
		Name: "flaky", Type: TypeCommand, Command: "flaky",
	})
	require.NoError(t, err)

	okFn := reg.Get(okID).Wrapped()
	failFn := reg.Get(failID).Wrapped()
	require.NoError(t, okFn(nil))
	require.NoError(t, okFn(nil))
	require.ErrorIs(t, failFn(nil), boom)
	require.ErrorIs(t, failFn(nil), boom)

	summary := reg.StatsSummary()
	assert.Equal(t, 2, summary.TotalHandlers)
	assert.Equal(t, int64(4), summary.TotalCalls)
	assert.Equal(t, int64(2), summary.TotalErrors)
	assert.InDelta(t, 0.5, summary.ErrorRate, 1e-9)
	assert.Equal(t, 2, summary.ByType[TypeCommand])
	assert.Equal(t, 1, summary.ByCategory[CategoryCore])
	assert.Equal(t, 1, summary.ByCategory[CategoryUser])
}
