package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	dirhash "github.com/mattkeenan/dirhash/pkg"
)

// Version is the current version of dirhash
const Version = "1.0.0"

// globalOptions are shared by every subcommand
type globalOptions struct {
	dir          string
	settingsPath string
	overrides    []string
	verbose      int
	debug        string
	progress     bool

	settings   *dirhash.Settings
	hashBuffer int
}

func main() {
	shutdown := setupSignalHandler()
	go exitOnShutdown(shutdown)

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(stderr, "dirhash: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "dirhash",
		Short: "Track file hashes of a directory tree and purge duplicates",
		Long: `dirhash records SHA-1 and SHA-256 digests of every file under a directory
in Hashes.xml, refreshes them incrementally, and deletes files that duplicate
files already hashed in other directories.

Name patterns in Hashes.config exclude directories and files from hashing.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", ".", "directory to operate on")
	flags.StringVar(&opts.settingsPath, "settings", "", "settings file (default $"+dirhash.SettingsEnvVar+" or ~/.dirhash/config)")
	flags.StringArrayVar(&opts.overrides, "set", nil, "override a setting, as key:value (repeatable)")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase verbosity (repeatable)")
	flags.StringVar(&opts.debug, "debug", "", "comma-separated debug categories (refresh,enumerate,purge,store)")
	flags.BoolVar(&opts.progress, "progress", false, "show a progress spinner instead of per-directory lines")

	cmd.AddCommand(newRecomputeCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newPurgeCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newDupesCommand(opts))
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newSettingsCommand(opts))

	return cmd
}

// setup loads settings, applies command-line overrides and configures output
func (o *globalOptions) setup(cmd *cobra.Command) error {
	settings, err := dirhash.LoadSettings(o.settingsPath)
	if err != nil {
		return err
	}

	overrides := append([]string(nil), o.overrides...)
	if o.verbose > 0 {
		overrides = append(overrides, fmt.Sprintf("level:%d", o.verbose))
	}
	if o.debug != "" {
		overrides = append(overrides, "debug:"+o.debug)
	}
	if err := settings.ApplyOverrides(overrides); err != nil {
		return err
	}

	hashBuffer, err := dirhash.ApplySettings(settings)
	if err != nil {
		return err
	}
	dirhash.SetLogOutput(cmd.ErrOrStderr())

	configureColor(settings.GetOutputConfig().Color, cmd.OutOrStdout())

	o.settings = settings
	o.hashBuffer = hashBuffer
	return nil
}

// configureColor applies the color mode; auto colors only a terminal stdout
func configureColor(mode string, stdout io.Writer) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		f, ok := stdout.(*os.File)
		color.NoColor = !ok || !isatty.IsTerminal(f.Fd()) || os.Getenv("NO_COLOR") != ""
	}
}
