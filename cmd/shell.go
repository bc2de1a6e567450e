package cmd

import (
	"io"
	"log"
	"os"

	"github.com/josephlewis42/gobble/core/banner"
	"github.com/josephlewis42/gobble/core/config"
	"github.com/josephlewis42/gobble/core/logger"
	"github.com/josephlewis42/gobble/core/shell"
	"github.com/josephlewis42/gobble/core/vos"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// openEvents returns the session's event logger and a function to release it.
func openEvents(cfg *config.Configuration, appLogger *log.Logger) (*logger.SessionLogger, func()) {
	if !cfg.EventLog {
		return logger.NewNopLogger().NewSession(), func() {}
	}

	logFd, err := cfg.OpenAppLog()
	if err != nil {
		appLogger.Printf("Couldn't open event log, events won't be recorded: %v", err)
		return logger.NewNopLogger().NewSession(), func() {}
	}

	return logger.NewJsonLinesLogRecorder(logFd).NewSession(), func() { logFd.Close() }
}

func runShell(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	appLogger := log.New(cmd.ErrOrStderr(), "[gobble] ", 0)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	noBanner, err := cmd.Flags().GetBool("no-banner")
	if err != nil {
		return err
	}

	dir, err := vos.NewHostDir()
	if err != nil {
		return err
	}

	historyPath, err := cmd.Flags().GetString("history")
	if err != nil {
		return err
	}
	if historyPath != "" {
		cfg.History.Path = historyPath
	}

	vio := vos.NewVIOAdapter(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	events, closeEvents := openEvents(cfg, appLogger)
	defer closeEvents()

	sh, err := shell.NewShell(shell.Options{
		Config: cfg,
		IO:     vio,
		Dir:    dir,
		Env:    vos.NewMapEnvFromEnvList(os.Environ()),
		Fs:     afero.NewOsFs(),
		Events: events,
		Logger: appLogger,
	})
	if err != nil {
		return err
	}
	defer sh.Close()

	if cfg.Banner && !noBanner {
		showBanner(vio.Stdout(), dir.Getwd(), sh.Colors().ShouldColor(), appLogger)
	}

	sh.Run()
	return nil
}

// showBanner prints system information, it never stops the shell from
// starting.
func showBanner(w io.Writer, dir string, colorize bool, appLogger *log.Logger) {
	info := banner.NewHostCollector().Collect(dir)
	if err := banner.Render(w, info, colorize); err != nil {
		appLogger.Printf("Couldn't show banner: %v", err)
	}
}
