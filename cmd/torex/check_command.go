package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"torex/internal/config"
	"torex/internal/preflight"
	"torex/internal/torrent"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [destination_dir]",
		Short: "Verify the destination tree and state directories are usable",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			destination := ""
			if len(args) == 1 {
				if destination, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			results := preflight.RunAll(cfg, destination)

			for _, line := range renderSectionHeader("Filesystem", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Categories", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, label := range cfg.Labels() {
				if _, err := torrent.Lookup(label); err != nil {
					fmt.Fprintln(out, renderStatusLine(label, statusWarn, "configured but not supported", colorize))
					continue
				}
				cat := cfg.Categories[label]
				detail := cat.Path
				if n := len(cat.Specific); n > 0 {
					detail = fmt.Sprintf("%s (%s)", cat.Path, pluralize(n, "override"))
				}
				fmt.Fprintln(out, renderStatusLine(label, statusInfo, detail, colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return fmt.Errorf("%s failed: %s", pluralize(len(failed), "check"), strings.Join(names, ", "))
			}
			return nil
		},
	}
}
