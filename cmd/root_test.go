package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "chart-intent", root.Name)

	names := make([]string, 0, len(root.Commands))
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}

	assert.ElementsMatch(t, []string{
		"infer", "profile", "recommend", "import", "tables",
		"history", "stats", "migrate", "clear", "config", "serve",
	}, names)

	flags := make(map[string]bool)
	for _, f := range root.Flags {
		for _, n := range f.Names() {
			flags[n] = true
		}
	}

	for _, want := range []string{"log-level", "db-path", "lexicon", "provider", "model", "no-llm", "verbose", "v", "debug"} {
		assert.True(t, flags[want], "missing flag %s", want)
	}
}

func TestCommandsHaveActions(t *testing.T) {
	for _, c := range NewRootCommand().Commands {
		require.NotNil(t, c.Action, c.Name)
		assert.NotEmpty(t, c.Usage, c.Name)
	}
}
