package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandDefinitions(t *testing.T) {
	defs := GetCommandDefinitions()

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
		require.NotEmpty(t, def.Description, def.Name)
	}
	require.Equal(t, []string{"sync", "sync_status", "summarize", "clear_cache", "ping"}, names)

	for _, def := range defs[:4] {
		require.Len(t, def.Options, 1, def.Name)
		require.Equal(t, "server_id", def.Options[0].Name)
		require.True(t, def.Options[0].Autocomplete)
		require.False(t, def.Options[0].Required)
	}
}
