package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "template-agent",
		Short: "Template agent service",
		Long:  "A conversational agent service wired to a Google model, an MCP tool server and a Postgres-backed conversation store.",
	}

	root.AddCommand(
		ServeCmd(),
	)

	return root
}
