package cmd

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/gobble/core/shell"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the commands the shell runs in-process
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		var builtins []string

		for cmd := range shell.AllBuiltins {
			builtins = append(builtins, "shell:"+cmd)
		}

		sort.Strings(builtins)

		for _, v := range builtins {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
