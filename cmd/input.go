package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// inputFlags select where a command reads its text from.
type inputFlags struct {
	file      string
	clipboard bool
}

func (f *inputFlags) register(cmd *cobra.Command, withFile bool) {
	cmd.Flags().BoolVar(&f.clipboard, "clipboard", false, "read from (and, for replacements, write back to) the clipboard")
	if withFile {
		cmd.Flags().StringVarP(&f.file, "file", "f", "", "read input from a file")
	}
}

// read returns the text to process: the joined args, the file, the
// clipboard, or stdin, in that order.
func (f *inputFlags) read(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case f.file != "":
		data, err := os.ReadFile(f.file) // #nosec G304 -- user-supplied input file
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(data), nil
	case f.clipboard:
		return newClipboard().Read()
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
}
