package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Run("Should register the serve command", func(t *testing.T) {
		root := RootCmd()
		serve, _, err := root.Find([]string{"serve"})
		require.NoError(t, err)
		assert.Equal(t, "serve", serve.Name())
	})
	t.Run("Should expose the log-json flag on serve", func(t *testing.T) {
		serve := ServeCmd()
		flag := serve.Flags().Lookup("log-json")
		require.NotNil(t, flag)
		assert.Equal(t, "false", flag.DefValue)
	})
}
