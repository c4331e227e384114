package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"torex/internal/archive"
	"torex/internal/config"
	"torex/internal/torrent"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var skipArchive bool

	cmd := &cobra.Command{
		Use:   "resolve <torrent_name> <torrent_download_dir> <label>",
		Short: "Show where a torrent would be extracted without writing anything",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.quietLogger(cmd)
			if err != nil {
				return err
			}

			t, err := torrent.New(cmd.Context(), requestFromArgs(args), cfg,
				torrent.WithLogger(logger), torrent.WithOpener(openArchive))
			if err != nil {
				return err
			}

			rule := t.MatchedRule
			if rule == "" {
				rule = "(category default)"
			}
			fields := [][2]string{
				{"Torrent", t.Name},
				{"Label", t.Label},
				{"Title", t.Title},
				{"Matched rule", rule},
				{"Destination", t.Destination},
				{"Archive", t.Archive},
				{"Extensions", strings.Join(t.Extensions, ", ")},
			}
			if marker := t.Release.Marker(); marker != "" {
				fields = append(fields, [2]string{"Episode", marker})
			}
			if t.Release.Resolution != "" {
				fields = append(fields, [2]string{"Resolution", t.Release.Resolution})
			}
			if t.Release.Group != "" {
				fields = append(fields, [2]string{"Group", t.Release.Group})
			}

			out := cmd.OutOrStdout()
			if skipArchive {
				fmt.Fprintln(out, renderFields(fields))
				return nil
			}
			plan, err := t.Plan(cmd.Context())
			if err != nil {
				return err
			}
			fields = append(fields, [2]string{"Selected", fmt.Sprintf("%d of %d members (%s)",
				plan.Selected, len(plan.Members), humanize.IBytes(uint64(plan.SelectedBytes)))})
			fmt.Fprintln(out, renderFields(fields))
			fmt.Fprintln(out, renderMembers(plan.Members, true))
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipArchive, "no-archive", false, "Skip opening the archive")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive_or_download_dir> [label]",
		Short: "List archive members, marking what a label would extract",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			archivePath, err := resolveArchivePath(cfg, args[0])
			if err != nil {
				return err
			}

			var filter archive.Filter
			withSelection := len(args) == 2
			if withSelection {
				exts, err := labelExtensions(cfg, args[1])
				if err != nil {
					return err
				}
				filter = archive.ExtensionFilter(exts)
			}

			reader, err := openArchive(archivePath, cfg.Extraction.Password)
			if err != nil {
				return err
			}
			defer reader.Close()
			members, err := archive.List(reader, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archive: %s\n", archivePath)
			if len(members) == 0 {
				fmt.Fprintln(out, "Archive is empty")
				return nil
			}
			fmt.Fprintln(out, renderMembers(members, withSelection))
			return nil
		},
	}
}

// resolveArchivePath accepts an archive file or a download directory holding
// exactly one archive.
func resolveArchivePath(cfg *config.Config, target string) (string, error) {
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(expanded)
	if err == nil && !info.IsDir() {
		return expanded, nil
	}
	return archive.Locate(afero.NewOsFs(), expanded, cfg.Extraction.ArchivePattern)
}

func labelExtensions(cfg *config.Config, label string) ([]string, error) {
	kind, err := torrent.Lookup(label)
	if err != nil {
		return nil, err
	}
	if cat, ok := cfg.Categories[config.NormalizeLabel(label)]; ok && len(cat.Extensions) > 0 {
		return cat.Extensions, nil
	}
	return kind.Extensions(), nil
}

func renderMembers(members []archive.Member, withSelection bool) string {
	headers := []string{"Name", "Size", "Modified"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft}
	if withSelection {
		headers = append(headers, "Extract")
		aligns = append(aligns, alignLeft)
	}
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		size := "?"
		switch {
		case m.IsDir:
			size = "-"
		case m.Size >= 0:
			size = humanize.IBytes(uint64(m.Size))
		}
		modified := ""
		if !m.ModTime.IsZero() {
			modified = m.ModTime.Local().Format("2006-01-02 15:04")
		}
		row := []string{m.Name, size, modified}
		if withSelection {
			row = append(row, yesNo(m.Selected))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}
