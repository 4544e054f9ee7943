package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootCommandFlags tests that all expected CLI flags are present
func TestRootCommandFlags(t *testing.T) {
	rootCmd := newRootCmd()

	persistent := map[string]string{
		"config":         "string",
		"log-level":      "string",
		"backend":        "string",
		"transport":      "string",
		"persona":        "int",
		"source":         "stringSlice",
		"document-set":   "stringSlice",
		"time-range":     "string",
		"show-documents": "bool",
		"plain":          "bool",
	}
	for name, typ := range persistent {
		flag := rootCmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, "missing flag --%s", name)
		assert.Equal(t, typ, flag.Value.Type(), "flag --%s", name)
	}

	assert.Equal(t, "c", rootCmd.PersistentFlags().Lookup("config").Shorthand)
	assert.Equal(t, "l", rootCmd.PersistentFlags().Lookup("log-level").Shorthand)

	session := rootCmd.Flags().Lookup("session")
	require.NotNil(t, session)
	assert.Equal(t, "int", session.Value.Type())
}

func TestSubcommandsRegistered(t *testing.T) {
	rootCmd := newRootCmd()

	for _, name := range []string{"ask", "session", "feedback", "init"} {
		sub, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	ask, _, err := rootCmd.Find([]string{"ask"})
	require.NoError(t, err)
	assert.NotNil(t, ask.Flags().Lookup("doc"))
	assert.NotNil(t, ask.Flags().Lookup("progress"))

	show, _, err := rootCmd.Find([]string{"session", "show"})
	require.NoError(t, err)
	assert.NotNil(t, show.Flags().Lookup("documents"))
}
