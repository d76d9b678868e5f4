package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/disposable/internal/ingest"
)

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		source      string
		chunk       int
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh disposable domains from one or all sources",
		Args:  cobra.NoArgs,
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

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Updating disposable domains...")
			fmt.Fprintln(out)

			rep, err := p.Update(cmd.Context(), ingest.UpdateOptions{
				Source:      source,
				ChunkSize:   max(1, chunk),
				Concurrency: concurrency,
			})
			if unknownSource(cmd.ErrOrStderr(), err) {
				return &ExitError{code: exitFailure}
			}

			processed := 0
			for _, s := range rep.Sources {
				fmt.Fprintf(out, "  %s: ", s.Source)
				switch {
				case !s.OK():
					fmt.Fprintf(out, "failed: %v\n", s.Err)
				case s.Found == 0:
					fmt.Fprintln(out, "no domains found")
				default:
					fmt.Fprintf(out, "found %d, imported %d\n", s.Found, s.Upserted)
					processed += s.Upserted
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "Done! Total domains processed: %d\n", processed)
			fmt.Fprintf(out, "Total unique domains in database: %d\n", rep.TotalRows)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Only update this source (default: all)")
	cmd.Flags().IntVar(&chunk, "chunk", ingest.DefaultChunkSize, "Number of domains to write per batch")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Sources imported in parallel")
	return cmd
}
