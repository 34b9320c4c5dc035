package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/uuidtrans/internal/presentation"
	"github.com/zjrosen/uuidtrans/internal/search"
)

var (
	searchIDInput   inputFlags
	searchNameInput inputFlags
)

var searchIDCmd = &cobra.Command{
	Use:   "search:id [id]",
	Short: "Print the name of the element with the given ID",
	Long: `Look up one element by ID and print its name.

The ID comes from the arguments, the clipboard (--clipboard) or stdin and is
trimmed first. IDs match case-insensitively. Input that is not shaped like an
ID prints nothing.

Examples:
  uuidtrans search:id 11111111-1111-1111-1111-111111111111
  uuidtrans search:id --clipboard --show-type`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args, &searchIDInput, search.FieldName)
	},
}

var searchNameCmd = &cobra.Command{
	Use:   "search:name [name]",
	Short: "Print the ID of the element with the given name",
	Long: `Look up one element by exact name and print its ID.

Names match case-sensitively after trimming. A name shared by several elements
prints every candidate ID; an unknown name may print close matches.

Examples:
  uuidtrans search:name PaymentService
  echo PaymentService | uuidtrans search:name`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args, &searchNameInput, search.FieldID)
	},
}

func init() {
	searchIDInput.register(searchIDCmd, false)
	searchNameInput.register(searchNameCmd, false)
	rootCmd.AddCommand(searchIDCmd, searchNameCmd)
}

func runSearch(cmd *cobra.Command, args []string, in *inputFlags, field search.Field) error {
	text, err := in.read(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Rebuild(cmd.Context()); err != nil {
		return err
	}

	var result search.Result
	if field == search.FieldName {
		result = a.Engine().ByID(text)
	} else {
		result = a.Engine().ByName(text)
	}
	return presentation.NewFormatter(cmd.OutOrStdout()).FormatResult(result, field, a.ShowType())
}
