package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/josephlewis42/gobble/core/config"
	"github.com/spf13/cobra"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrPermission) {
		log.Println("Couldn't load config: check the permissions of --config")
	}

	return configuration, err
}

// rootCmd runs the interactive shell when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gobble",
	Short: "Gobble Shell",
	Long: `An interactive shell that runs programs and pipelines of programs,
with an ai builtin that asks a hosted model for help.`,
	Args: cobra.ExactArgs(0),
	RunE: runShell,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultDir(), "config path")
	rootCmd.Flags().Bool("no-banner", false, "don't show the system information banner")
	rootCmd.Flags().String("history", "", "history file, overrides history.path from the config")
}
