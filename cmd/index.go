package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/presentation"
)

// errIntegrity makes index:check exit non-zero.
var errIntegrity = errors.New("integrity warnings found")

var indexListType string

var indexListCmd = &cobra.Command{
	Use:   "index:list",
	Short: "List every indexed element as JSON",
	Long: `Index the workspace and print every element as JSON, in index order.

Examples:
  uuidtrans index:list
  uuidtrans index:list --type Service
  uuidtrans index:list | jq '.[].name'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Rebuild(cmd.Context()); err != nil {
			return err
		}

		elements := a.Engine().Snapshot().Elements()
		if cmd.Flags().Changed("type") {
			elements = filterByType(elements, indexListType)
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatElements(presentation.FromElements(elements))
	},
}

var indexCheckJSON bool

var indexCheckCmd = &cobra.Command{
	Use:   "index:check",
	Short: "Index the workspace and report integrity problems",
	Long: `Index the workspace and print every integrity warning: duplicate IDs,
files that could not be parsed, and malformed entries that were skipped.

Exits with status 1 when there is at least one warning.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Rebuild(cmd.Context())
		if err != nil {
			return err
		}

		warnings := presentation.FromWarnings(report.Warnings)
		f := presentation.NewFormatter(cmd.OutOrStdout())
		if indexCheckJSON {
			if err := f.FormatJSON(warnings); err != nil {
				return err
			}
		} else {
			if err := f.FormatWarnings(warnings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d elements, %d warnings\n",
				report.Files, report.Elements, len(warnings))
		}

		if len(warnings) > 0 {
			return errIntegrity
		}
		return nil
	},
}

func init() {
	indexListCmd.Flags().StringVarP(&indexListType, "type", "t", "", "only list elements of this type")
	indexCheckCmd.Flags().BoolVar(&indexCheckJSON, "json", false, "print warnings as JSON")
	rootCmd.AddCommand(indexListCmd, indexCheckCmd)
}

func filterByType(elements []element.Element, typ string) []element.Element {
	var out []element.Element
	for _, e := range elements {
		if e.Type() == typ {
			out = append(out, e)
		}
	}
	return out
}
