package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	dirhash "github.com/mattkeenan/dirhash/pkg"
)

var (
	successColor = color.New(color.FgGreen)
	deleteColor  = color.New(color.FgRed)
	dirColor     = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

func newRecomputeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Hash every file from scratch and write Hashes.xml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter := newDirectoryReporter(cmd, "Recomputing hashes of", opts.progress)
			store, err := dirhash.RecomputeAndSave(opts.dir, dirhash.StoreOptions{
				HashBuffer:       opts.hashBuffer,
				OnEnterDirectory: reporter.enter,
			})
			reporter.finish()
			if err != nil {
				return err
			}

			successColor.Fprintf(cmd.OutOrStdout(), "Hashed %d files in %s\n", store.Tree.FileCount(), store.Root)
			return nil
		},
	}
}

func newUpdateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Rehash files changed since the last run and write Hashes.xml",
		Long: `Rehash only files created or modified after the update time recorded in
Hashes.xml, drop entries for files that no longer exist, and hash new files.
Requires a previous recompute.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter := newDirectoryReporter(cmd, "Updating hashes of", opts.progress)
			store, err := dirhash.UpdateAndSave(opts.dir, dirhash.StoreOptions{
				HashBuffer:       opts.hashBuffer,
				OnEnterDirectory: reporter.enter,
			})
			reporter.finish()
			if err != nil {
				return err
			}

			successColor.Fprintf(cmd.OutOrStdout(), "%d files hashed in %s\n", store.Tree.FileCount(), store.Root)
			return nil
		},
	}
}

func newPurgeCommand(opts *globalOptions) *cobra.Command {
	var (
		dryRun     bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "purge [--dry-run] [--report FILE] dir...",
		Short: "Delete files that duplicate files in other hashed directories",
		Long: `Delete every file under --dir whose hashes match a file in one of the given
source directories, then remove directories the deletions left empty.

Only hashes that are still trusted are used, on both sides. Run update in each
directory first; files without a trusted hash are reported and kept.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dry-run") {
				dryRun = opts.settings.GetPurgeConfig().DryRun
			}

			out := cmd.OutOrStdout()
			deleteVerb := "Deleted"
			removeVerb := "Removed"
			if dryRun {
				deleteVerb = "Would delete"
				removeVerb = "Would remove"
			}

			report, err := dirhash.PurgeDirectories(opts.dir, args, dirhash.PurgeOptions{
				DryRun: dryRun,
				OnDeleted: func(path, duplicateOf string) {
					deleteColor.Fprintf(out, "%s %s", deleteVerb, path)
					fmt.Fprintf(out, " (duplicate of %s)\n", duplicateOf)
				},
				OnRemovedDirectory: func(path string) {
					dirColor.Fprintf(out, "%s empty directory %s\n", removeVerb, path)
				},
				OnSkipped: func(path string, reason dirhash.SkipReason) {
					warnColor.Fprintf(out, "Skipped %s: %s\n", path, reason)
				},
			})

			if report != nil && reportPath != "" {
				if saveErr := report.SaveYAML(reportPath); saveErr != nil && err == nil {
					err = saveErr
				}
			}
			if err != nil {
				return err
			}

			printPurgeSummary(out, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be deleted without deleting")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a YAML report of the run to FILE")
	return cmd
}

func printPurgeSummary(out io.Writer, report *dirhash.PurgeReport) {
	prefix := ""
	if report.DryRun {
		prefix = "Dry run: "
	}
	successColor.Fprintf(out, "%s%d files deleted, %d directories removed, %d kept, %d skipped\n",
		prefix, len(report.Deleted), len(report.RemovedDirectories), report.KeptFiles, len(report.Skipped))
}

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report FILE",
		Short: "Show a purge report saved with purge --report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := dirhash.LoadPurgeReport(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Purge %s of %s\n", report.RunID, report.Target)
			for _, source := range report.Sources {
				fmt.Fprintf(out, "  against %s\n", source)
			}

			deleteVerb := "Deleted"
			removeVerb := "Removed"
			if report.DryRun {
				deleteVerb = "Would delete"
				removeVerb = "Would remove"
			}
			for _, file := range report.Deleted {
				deleteColor.Fprintf(out, "%s %s", deleteVerb, file.Path)
				fmt.Fprintf(out, " (duplicate of %s)\n", file.DuplicateOf)
			}
			for _, dir := range report.RemovedDirectories {
				dirColor.Fprintf(out, "%s empty directory %s\n", removeVerb, dir)
			}
			for _, file := range report.Skipped {
				warnColor.Fprintf(out, "Skipped %s: %s\n", file.Path, file.Reason)
			}

			printPurgeSummary(out, report)
			return nil
		},
	}
}

func newSettingsCommand(opts *globalOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "settings [--save]",
		Short: "Show the effective settings, or write them to the settings file",
		Long: `Print the settings after the settings file and any --set, -v or --debug
overrides have been applied. With --save the result is written back to the
settings file so later runs pick it up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			all := opts.settings.GetAllSettings()

			fmt.Fprintf(out, "# %s\n", opts.settings.Path())
			fmt.Fprintf(out, "[verbose]\nlevel = %d\ndebug = %s\n\n", all.Verbose.Level, all.Verbose.Debug)
			fmt.Fprintf(out, "[performance]\nhash_buffer = %s\n\n", all.Performance.HashBuffer)
			fmt.Fprintf(out, "[output]\ncolor = %s\n\n", all.Output.Color)
			fmt.Fprintf(out, "[purge]\ndry_run = %t\n", all.Purge.DryRun)

			if !save {
				return nil
			}
			if err := opts.settings.Save(); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			successColor.Fprintf(out, "Saved settings to %s\n", opts.settings.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the effective settings to the settings file")
	return cmd
}

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show files added, modified or deleted since the last update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := dirhash.LoadStore(opts.dir)
			if err != nil {
				return err
			}
			result, err := dirhash.Status(store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, file := range result.Modified {
				warnColor.Fprintf(out, "modified: %s\n", file)
			}
			for _, file := range result.Added {
				successColor.Fprintf(out, "added:    %s\n", file)
			}
			for _, file := range result.Deleted {
				deleteColor.Fprintf(out, "deleted:  %s\n", file)
			}
			if !result.HasChanges() {
				fmt.Fprintln(out, "No changes since the last update")
			}
			return nil
		},
	}
}

func newDupesCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "List groups of identical files within the hashed directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "human" && format != "yaml" {
				return fmt.Errorf("invalid format '%s', must be 'human' or 'yaml'", format)
			}

			store, err := dirhash.LoadStore(opts.dir)
			if err != nil {
				return err
			}
			result, err := dirhash.FindDuplicates(store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "yaml" {
				encoder := yaml.NewEncoder(out)
				encoder.SetIndent(2)
				if err := encoder.Encode(result.Groups); err != nil {
					return fmt.Errorf("failed to encode duplicates: %w", err)
				}
				return encoder.Close()
			}

			for _, group := range result.Groups {
				dirColor.Fprintf(out, "%s (%d files)\n", group.Hash, group.Count)
				for _, file := range group.Files {
					fmt.Fprintf(out, "  %s\n", file)
				}
			}
			for _, file := range result.Untrusted {
				warnColor.Fprintf(out, "No trusted hash: %s\n", file)
			}
			successColor.Fprintf(out, "%d duplicate groups\n", len(result.Groups))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "human", "output format (human|yaml)")
	return cmd
}
