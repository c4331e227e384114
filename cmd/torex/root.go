package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)
	var force bool

	rootCmd := &cobra.Command{
		Use:   "torex <torrent_name> <torrent_download_dir> <label>",
		Short: "Extract completed torrent downloads into a media library",
		Long: "Extracts the media files from a finished torrent's RAR archive into the\n" +
			"destination configured for its label. Intended to run as a torrent client's\n" +
			"completion hook.",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			if _, err := ctx.ensureConfig(); err != nil {
				ctx.reportConfigFailure(cmd, err)
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, ctx, requestFromArgs(args), force)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config_file", "c", "", "Configuration file path")
	pf.StringVar(&flags.destinationDir, "destination_dir", "", "Root directory for relative category paths")
	pf.StringVar(&flags.logFilename, "log_filename", "", "Log file path")
	pf.StringVar(&flags.logLevel, "log_level", "", "Log file level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log_format", "", "Log file format (console, json)")
	rootCmd.Flags().BoolVar(&force, "force", false, "Extract even if the journal records a previous success")

	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
