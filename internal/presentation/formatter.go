package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/zjrosen/uuidtrans/internal/search"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer

	warn    *color.Color
	faint   *color.Color
	added   *color.Color
	removed *color.Color
}

// NewFormatter creates a new formatter. Colors follow fatih/color's
// terminal detection (NO_COLOR, non-tty output).
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer:  writer,
		warn:    color.New(color.FgYellow),
		faint:   color.New(color.Faint),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed, color.CrossedOut),
	}
}

// WithoutColor disables colored output regardless of the terminal.
func (f *Formatter) WithoutColor() *Formatter {
	for _, c := range []*color.Color{f.warn, f.faint, f.added, f.removed} {
		c.DisableColor()
	}
	return f
}

// FormatJSON writes v as indented JSON
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatElements formats a list of elements as JSON
func (f *Formatter) FormatElements(elements []ElementDTO) error {
	return f.FormatJSON(elements)
}

// FormatResult writes a lookup result as text. One prints the formatted
// value, Empty and Multiple print their message, Invalid prints nothing.
func (f *Formatter) FormatResult(r search.Result, field search.Field, showType bool) error {
	if _, ok := r.(search.Invalid); ok {
		return nil
	}
	if _, err := fmt.Fprintln(f.writer, search.Format(r, field, showType)); err != nil {
		return err
	}
	if empty, ok := r.(search.Empty); ok && len(empty.Suggestions) > 0 {
		_, err := f.faint.Fprintf(f.writer, "did you mean: %s\n", strings.Join(empty.Suggestions, ", "))
		return err
	}
	return nil
}

// FormatWarnings writes one line per integrity warning, "<kind>: <message>".
func (f *Formatter) FormatWarnings(warnings []WarningDTO) error {
	for _, w := range warnings {
		if _, err := f.warn.Fprintf(f.writer, "%s: %s\n", w.Kind, w.Message); err != nil {
			return err
		}
	}
	return nil
}

// FormatDiff writes a word-level preview of the change from before to
// after. Removed text is red, added text green.
func (f *Formatter) FormatDiff(before, after string) error {
	var b strings.Builder
	for _, seg := range Diff(before, after) {
		switch seg.Op {
		case OpEqual:
			b.WriteString(seg.Text)
		case OpInsert:
			b.WriteString(f.added.Sprint(seg.Text))
		case OpDelete:
			b.WriteString(f.removed.Sprint(seg.Text))
		}
	}
	if !strings.HasSuffix(after, "\n") {
		b.WriteString("\n")
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}
