package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/live/internal/errors"
)

func errorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors [code]",
		Short: "List error codes or explain one",
		Long: `List the error codes live reports, or explain one of them.

Examples:
  live errors
  live errors L160`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listErrors(cmd.OutOrStdout())
				return nil
			}
			return explainError(cmd.OutOrStdout(), args[0])
		},
	}
}

func listErrors(w io.Writer) {
	for _, code := range errors.Codes() {
		t, _ := errors.Lookup(code)
		fmt.Fprintf(w, "  %s  %-11s %s\n", code, t.Category, t.Message)
	}
}

func explainError(w io.Writer, code string) error {
	code = strings.ToUpper(code)
	t, ok := errors.Lookup(code)
	if !ok {
		return errors.Newf(errors.CategoryCLI, "Unknown error code %q", code).
			WithSuggestion("Run 'live errors' to list the codes")
	}
	fmt.Fprintf(w, "%s: %s\n\n  Category: %s\n", code, t.Message, t.Category)
	if t.Detail != "" {
		fmt.Fprintf(w, "\n  %s\n", t.Detail)
	}
	return nil
}
