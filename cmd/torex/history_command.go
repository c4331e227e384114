package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"torex/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent extraction attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "History is disabled (set enabled = true under [history])")
				return nil
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No extractions recorded")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				detail := e.Destination
				if e.Status == history.StatusFailed {
					detail = e.ErrorKind
				}
				rows = append(rows, []string{
					e.FinishedAt.Local().Format("2006-01-02 15:04:05"),
					e.Status,
					e.Torrent,
					e.Label,
					strconv.Itoa(e.Files),
					humanize.IBytes(uint64(max(e.Bytes, 0))),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "Status", "Torrent", "Label", "Files", "Size", "Destination / Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
