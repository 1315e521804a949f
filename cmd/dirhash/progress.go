package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	dirhash "github.com/mattkeenan/dirhash/pkg"
)

// directoryReporter announces each directory a refresh enters, either as a line
// per directory or, with --progress on a terminal, as a spinner.
type directoryReporter struct {
	out  io.Writer
	verb string
	bar  *progressbar.ProgressBar
}

func newDirectoryReporter(cmd *cobra.Command, verb string, progress bool) *directoryReporter {
	r := &directoryReporter{
		out:  cmd.OutOrStdout(),
		verb: verb,
	}

	// verbose logging shares stderr with the spinner, so it falls back to lines
	stderr, ok := cmd.ErrOrStderr().(*os.File)
	if progress && ok && dirhash.GetVerboseLevel() == 0 && isatty.IsTerminal(stderr.Fd()) {
		r.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetDescription(verb),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	return r
}

// enter is used as the OnEnterDirectory callback
func (r *directoryReporter) enter(dirPath string) {
	if r.bar != nil {
		r.bar.Describe(fmt.Sprintf("%s %s", r.verb, dirPath))
		_ = r.bar.Add(1)
		return
	}
	fmt.Fprintf(r.out, "%s %s...\n", r.verb, dirPath)
}

func (r *directoryReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
