package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ollie314/Akumuli/cmd/create"
	"github.com/ollie314/Akumuli/cmd/integrity"
)

// Execute builds the command tree and executes commands.
func Execute() error {
	// c is the root command.
	c := &cobra.Command{
		Use: "akumuli",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}

	c.AddCommand(create.Cmd)
	c.AddCommand(integrity.Cmd)

	return c.Execute()
}
