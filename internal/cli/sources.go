package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

const maxURLWidth = 60

func newSourcesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the registered domain sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available disposable domain sources:")
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tURL")
			for _, s := range a.Sources() {
				fmt.Fprintf(tw, "%s\t%s\n", s.Name, truncateURL(s.URL))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Use 'disposable import <source>' to import from a specific source.")
			fmt.Fprintln(out, "Use 'disposable update' to update from all sources.")
			return nil
		},
	}
}

func truncateURL(u string) string {
	switch {
	case u == "":
		return "N/A"
	case len(u) > maxURLWidth:
		return u[:maxURLWidth-3] + "..."
	default:
		return u
	}
}
