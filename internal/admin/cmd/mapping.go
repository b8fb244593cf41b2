package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/server/mapping"
)

func newMappingCmd(a *adminClient) *cobra.Command {
	cmd := &cobra.Command{Use: "mapping", Short: "Show the account code table"}
	cmd.AddCommand(&cobra.Command{
		Use:   "lookup <code>",
		Short: "Print the account name for a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := mapping.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown account code %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every account code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := mapping.Entries()
			out := cmd.OutOrStdout()
			if !a.table(out) {
				return writeJSON(out, entries)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", e.Code, e.Name)
			}
			return tw.Flush()
		},
	})
	return cmd
}
