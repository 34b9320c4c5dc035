package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/uuidtrans/internal/app"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/presentation"
	"github.com/zjrosen/uuidtrans/internal/replace"
)

type replaceFlags struct {
	inputFlags
	diff bool
}

var (
	replaceIDsFlags   replaceFlags
	replaceNamesFlags replaceFlags
)

var replaceIDsCmd = &cobra.Command{
	Use:   "replace:ids",
	Short: "Replace every resolvable ID in a text with its element name",
	Long: `Replace every ID in a block of text that resolves to exactly one
element with that element's name. Everything else is left as is.

Input comes from --file, --clipboard or stdin. With --clipboard the result is
written back to the clipboard; otherwise it is printed. --diff prints a
preview of the change instead.

Examples:
  uuidtrans replace:ids < notes.md
  uuidtrans replace:ids --clipboard
  uuidtrans replace:ids --file notes.md --diff`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReplace(cmd, &replaceIDsFlags, func(a *app.App, text string) (string, replace.Report, error) {
			out, report := a.Replacer().IDsWithReport(text)
			return out, report, nil
		})
	},
}

var replaceNamesCmd = &cobra.Command{
	Use:   "replace:names",
	Short: "Replace every line that names one element with its ID",
	Long: `Replace each line of a text whose trimmed content names exactly one
element with that element's ID. Other lines are kept verbatim and the number
of lines never changes.

If the input cannot be read completely nothing is written back.

Examples:
  uuidtrans replace:names < names.txt
  uuidtrans replace:names --clipboard`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReplace(cmd, &replaceNamesFlags, func(a *app.App, text string) (string, replace.Report, error) {
			return a.Replacer().NamesWithReport(strings.NewReader(text))
		})
	},
}

func init() {
	for _, c := range []struct {
		cmd   *cobra.Command
		flags *replaceFlags
	}{
		{replaceIDsCmd, &replaceIDsFlags},
		{replaceNamesCmd, &replaceNamesFlags},
	} {
		c.flags.register(c.cmd, true)
		c.cmd.Flags().BoolVar(&c.flags.diff, "diff", false, "print a diff preview instead of the result")
		rootCmd.AddCommand(c.cmd)
	}
}

func runReplace(cmd *cobra.Command, f *replaceFlags, apply func(*app.App, string) (string, replace.Report, error)) error {
	text, err := f.read(cmd, nil)
	if err != nil {
		return &replace.ReplacementError{Err: err}
	}
	if f.clipboard {
		// clipboard text is trimmed like tray input
		text = strings.TrimSpace(text)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Rebuild(cmd.Context()); err != nil {
		return err
	}

	out, report, err := apply(a, text)
	if err != nil {
		return err
	}
	log.Info(log.CatReplace, "Replacement done", "command", cmd.Name(),
		"resolved", report.Resolved, "unresolved", report.Unresolved)

	w := cmd.OutOrStdout()
	switch {
	case f.diff:
		return presentation.NewFormatter(w).FormatDiff(text, out)
	case f.clipboard:
		if err := a.Clipboard().Write(out); err != nil {
			return fmt.Errorf("writing clipboard: %w", err)
		}
		_, err := fmt.Fprintf(cmd.ErrOrStderr(), "Replacement complete. %d replaced, %d unresolved.\n",
			report.Resolved, report.Unresolved)
		return err
	default:
		_, err := io.WriteString(w, out)
		return err
	}
}
