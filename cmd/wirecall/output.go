package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wirecall/internal/dispatch"
)

// printResult writes a styled title followed by v as indented JSON.
func printResult(cmd *cobra.Command, title string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, styles.Title.Render(title))
	fmt.Fprintln(w, string(data))
	return nil
}

// printRows writes an aligned two-or-more column listing.
func printRows(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	line := func(cells []string) string {
		var b strings.Builder
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(cells)-1 {
				b.WriteString(cell)
				continue
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
		return b.String()
	}
	fmt.Fprintln(w, styles.Label.Render(line(header)))
	for _, row := range rows {
		fmt.Fprintln(w, line(row))
	}
}

// renderError formats err for the terminal. Dispatch errors show their kind,
// service code and request id on separate labelled lines.
func renderError(err error) string {
	de, ok := dispatch.AsError(err)
	if !ok {
		return styles.Error.Render("Error:") + " " + err.Error()
	}

	var b strings.Builder
	b.WriteString(styles.Error.Render(de.Kind.String() + " error"))
	if de.Message != "" {
		b.WriteString(": ")
		b.WriteString(de.Message)
	} else if de.Err != nil {
		b.WriteString(": ")
		b.WriteString(de.Err.Error())
	}
	field := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString("\n  ")
		b.WriteString(styles.Label.Render(name + ":"))
		b.WriteString(" ")
		b.WriteString(value)
	}
	field("code", de.Code)
	if de.StatusCode != 0 {
		field("status", fmt.Sprint(de.StatusCode))
	}
	field("request id", de.RequestID)
	if de.Attempts > 1 {
		field("attempts", fmt.Sprint(de.Attempts))
	}
	return b.String()
}
