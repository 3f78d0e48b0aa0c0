package boot

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func nopHandler(ctx context.Context, st *State) error { return nil }

func TestPhaseTableValidate(t *testing.T) {
	t.Parallel()

	valid := PhaseTable{
		{Index: 0, Name: "root", Run: nopHandler},
		{Index: 2, Name: "configuration", Run: nopHandler},
		{Index: 5, Name: "full", Run: nopHandler},
	}
	require.NoError(t, valid.Validate())
	require.Equal(t, 5, valid.Highest())
	require.True(t, valid.Contains(2))
	require.False(t, valid.Contains(3))

	cases := map[string]PhaseTable{
		"duplicate index": {
			{Index: 0, Name: "root", Run: nopHandler},
			{Index: 0, Name: "site", Run: nopHandler},
		},
		"decreasing index": {
			{Index: 3, Name: "full", Run: nopHandler},
			{Index: 1, Name: "site", Run: nopHandler},
		},
		"negative index": {
			{Index: -2, Name: "root", Run: nopHandler},
		},
		"unnamed phase": {
			{Index: 0, Name: "", Run: nopHandler},
		},
		"nil handler": {
			{Index: 0, Name: "root"},
		},
	}
	for name, table := range cases {
		err := table.Validate()
		require.Error(t, err, name)
		require.IsType(t, ValidationError{}, err, name)
	}
}

func TestPhaseTableHighestEmpty(t *testing.T) {
	t.Parallel()
	require.Equal(t, PhaseNone, PhaseTable{}.Highest())
}

func TestRenderCommandErrorPrefersBootstrapErrors(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	RenderCommandError(out, &Command{
		Name:            "db:update",
		BootstrapErrors: []string{"first reason", "second reason"},
	})
	require.Equal(t, "first reason\nsecond reason\n", out.String())
}

func TestRenderCommandErrorGenericWithSuggestions(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	RenderCommandError(out, &Command{
		Name:        "cache:rebuld",
		Suggestions: []string{"cache:rebuild"},
	})
	require.Contains(t, out.String(), "command not found: cache:rebuld")
	require.Contains(t, out.String(), "did you mean: cache:rebuild?")
}

func TestRenderCommandErrorNilCommand(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	RenderCommandError(out, nil)
	require.Equal(t, "no command matched the request\n", out.String())
}

func TestStateValuesTypedAccess(t *testing.T) {
	t.Parallel()

	st := newState("/srv/site", "")
	SetValue(st, "site:dir", "/srv/site/sites/default")

	dir, ok := Value[string](st, "site:dir")
	require.True(t, ok)
	require.Equal(t, "/srv/site/sites/default", dir)

	_, ok = Value[int](st, "site:dir")
	require.False(t, ok)

	_, ok = Value[string](st, "missing")
	require.False(t, ok)
}

func TestInputValuesRoundTrip(t *testing.T) {
	t.Parallel()

	st := newState("/srv/site", "")
	SetInput(st, 1, "site", "alpha")

	val, ok := GetInput(st, 1, "site")
	require.True(t, ok)
	require.Equal(t, "alpha", val)

	_, ok = GetInput(st, 2, "site")
	require.False(t, ok)
}
