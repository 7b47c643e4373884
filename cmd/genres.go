package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var genresJSON bool

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List the genres in the dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		genres := ds.Genres()
		out := cmd.OutOrStdout()
		if genresJSON {
			return writeJSON(out, genres)
		}
		if len(genres) == 0 {
			fmt.Fprintln(out, "(no genres)")
			return nil
		}
		for _, g := range genres {
			fmt.Fprintf(out, "- %s\n", g)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genresCmd)
	genresCmd.Flags().BoolVar(&genresJSON, "json", false, "print JSON instead of text")
}
