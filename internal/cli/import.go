package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/disposable/internal/ingest"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		chunk      int
		clearFirst bool
	)
	cmd := &cobra.Command{
		Use:   "import <source>",
		Short: "Import disposable domains from one source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Pipeline()
			if err != nil {
				return asExit(err)
			}

			name := args[0]
			out := cmd.OutOrStdout()
			rep, err := p.Import(cmd.Context(), name, ingest.ImportOptions{
				ChunkSize: max(1, chunk),
				Clear:     clearFirst,
			})
			if unknownSource(cmd.ErrOrStderr(), err) {
				return &ExitError{code: exitFailure}
			}

			fmt.Fprintf(out, "Importing from %s...\n", name)
			if clearFirst {
				fmt.Fprintf(out, "  Cleared %d existing domains from this source.\n", rep.Cleared)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to import: %v\n", err)
				return &ExitError{code: exitFailure}
			}
			if rep.Found == 0 {
				fmt.Fprintln(out, "No domains found in source.")
				return nil
			}
			fmt.Fprintf(out, "  Found %d domains.\n", rep.Found)
			if rep.Skipped > 0 {
				fmt.Fprintf(out, "  Skipped %d invalid entries.\n", rep.Skipped)
			}
			fmt.Fprintf(out, "Successfully imported %d domains from %s.\n", rep.Upserted, name)

			total, err := p.TotalRows(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Total unique domains in database: %d\n", total)
			return nil
		},
	}
	cmd.Flags().IntVar(&chunk, "chunk", ingest.DefaultChunkSize, "Number of domains to write per batch")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Delete this source's domains before importing")
	return cmd
}
