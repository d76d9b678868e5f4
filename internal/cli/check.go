package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check <email|domain>...",
		Short: "Classify email addresses or domains",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			det := a.Detector()
			results := make([]domain.CheckResult, 0, len(args))
			invalid := map[string]string{}
			for _, in := range args {
				res, err := det.Check(cmd.Context(), in)
				if err != nil {
					if !errors.Is(err, domain.ErrInvalidFormat) {
						return fmt.Errorf("check %q: %w", in, err)
					}
					invalid[in] = err.Error()
				}
				results = append(results, res)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INPUT\tDOMAIN\tVERDICT\tMATCHED BY")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Input, orDash(r.Domain), verdict(r, invalid), orDash(r.MatchedBy))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func verdict(r domain.CheckResult, invalid map[string]string) string {
	switch {
	case invalid[r.Input] != "":
		return "invalid"
	case r.Whitelisted:
		return "whitelisted"
	case r.Disposable:
		return "disposable"
	default:
		return "ok"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
