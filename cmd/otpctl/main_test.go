package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{{"migrate"}, {"reap"}, {"outbox", "drain"}} {
		c, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}

func TestMigrate_UnknownDriver(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--driver", "mongo", "migrate"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store driver "mongo"`)
}
