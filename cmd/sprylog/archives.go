package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"spry-hq/sprylog/pkg/archive"
	"spry-hq/sprylog/pkg/cli"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var archivesFlags struct {
	output string
}

var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "Inspect and prune rotated log archives",
}

var archivesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the archives of the configured log files, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runArchivesList,
}

var archivesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove archives beyond logger.max_archives",
	Args:  cobra.NoArgs,
	RunE:  runArchivesPrune,
}

var archivesCatCmd = &cobra.Command{
	Use:   "cat <archive>",
	Short: "Print the decompressed content of an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchivesCat,
}

func init() {
	archivesListCmd.Flags().StringVarP(&archivesFlags.output, "output", "o", "text", "output format (text, json, csv)")

	archivesCmd.AddCommand(archivesListCmd, archivesPruneCmd, archivesCatCmd)
	rootCmd.AddCommand(archivesCmd)
}

// archiveRow is one archive in `archives list` output.
type archiveRow struct {
	LogFile string    `json:"log_file"`
	Path    string    `json:"path"`
	Stamp   string    `json:"stamp"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

type archiveList []archiveRow

// Table renders sizes and ages for humans.
func (l archiveList) Table() cli.Table {
	t := cli.Table{Headers: []string{"LOG", "ARCHIVE", "SIZE", "AGE"}}
	for _, r := range l {
		t.Rows = append(t.Rows, []string{
			filepath.Base(r.LogFile),
			filepath.Base(r.Path),
			humanize.Bytes(uint64(r.Size)),
			humanize.Time(r.ModTime),
		})
	}
	return t
}

func collectArchives(files []string) (archiveList, error) {
	list := archiveList{}
	for _, file := range files {
		infos, err := archive.List(file)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			list = append(list, archiveRow{
				LogFile: file,
				Path:    info.Path,
				Stamp:   info.Stamp,
				Size:    info.Size,
				ModTime: info.ModTime,
			})
		}
	}
	return list, nil
}

func runArchivesList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(archivesFlags.output)
	if err != nil {
		return cli.NewCommandError("archives list", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	list, err := collectArchives(a.logFiles())
	if err != nil {
		return cli.NewCommandError("archives list", err)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), list)
}

func runArchivesPrune(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	arch := archive.New(archive.Config{
		MaxLines:    a.cfg.Logger.MaxLines,
		Archive:     a.cfg.Logger.Archive,
		MaxArchives: a.cfg.Logger.MaxArchives,
	}, archive.WithObserver(a.collector))

	out := cmd.OutOrStdout()
	total := 0
	for _, file := range a.logFiles() {
		removed, err := arch.Prune(file)
		if err != nil {
			return cli.NewCommandError("archives prune", err)
		}
		for _, p := range removed {
			fmt.Fprintf(out, "removed %s\n", p)
		}
		total += len(removed)
	}
	fmt.Fprintf(out, "✓ %d archive(s) removed\n", total)
	return nil
}

func runArchivesCat(cmd *cobra.Command, args []string) error {
	rc, err := archive.Open(args[0])
	if err != nil {
		return cli.NewCommandError("archives cat", err)
	}
	defer rc.Close()

	if _, err := io.Copy(cmd.OutOrStdout(), rc); err != nil {
		return cli.NewCommandError("archives cat", err)
	}
	return nil
}
