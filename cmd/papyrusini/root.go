package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dshills/papyrusini/internal/app"
)

type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string

	// fs replaces the OS file system in tests.
	fs afero.Fs
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papyrusini",
		Short: "Read and write game INI settings from Lua scripts",
		Long: `papyrusini runs Lua settings scripts against a directory of INI files.
Scripts use the PapyrusIni module for immediate reads and writes and the
BufferedIni module to batch changes in memory until the file is flushed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (TOML or YAML)")
	flags.StringVarP(&opts.dataDir, "data-dir", "d", "", "Directory relative INI paths resolve against")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(opts),
		newGetCmd(opts),
		newSetCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) newApp(cmd *cobra.Command, watch bool) (*app.Application, error) {
	return app.New(app.Options{
		ConfigPath: o.configPath,
		DataDir:    o.dataDir,
		LogLevel:   o.logLevel,
		Watch:      watch,
		Fs:         o.fs,
		Stderr:     cmd.ErrOrStderr(),
	})
}
