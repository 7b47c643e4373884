package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/utils"
	"github.com/KaramelBytes/musicdash/internal/view"
)

// textReport is anything with a plain-text rendering.
type textReport interface {
	Markdown() string
}

// emit prints v as indented JSON when asJSON is set, else its Markdown.
func emit(cmd *cobra.Command, asJSON bool, v textReport) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, v)
	}
	_, err := fmt.Fprint(out, v.Markdown())
	return err
}

func writeJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// chooseColumn parses a flag value and checks it against the selector's
// choices.
func chooseColumn(flag, value string, allowed []dataset.Column) (dataset.Column, error) {
	c, err := dataset.ParseColumn(value)
	if err == nil {
		err = view.Choose(c, allowed)
	}
	if err != nil {
		return "", fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return c, nil
}

// notice writes a ⚠ line to stderr for results with nothing to show.
func notice(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "⚠ "+format+"\n", args...)
}
