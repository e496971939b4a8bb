package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	old := GetVersion()
	SetVersion("0.4.0")
	t.Cleanup(func() { SetVersion(old) })

	res := execute(t, t.TempDir(), "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "eve version 0.4.0\n", res.stdout)
}
