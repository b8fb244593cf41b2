package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountsCmd(a *adminClient) *cobra.Command {
	cmd := &cobra.Command{Use: "accounts", Short: "Inspect accounts"}
	cmd.AddCommand(&cobra.Command{Use: "list", Short: "List accounts with remaining amounts", Args: cobra.NoArgs, RunE: a.listAccounts})
	return cmd
}

func (a *adminClient) listAccounts(cmd *cobra.Command, args []string) error {
	st, svcs, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	accounts, err := svcs.Ledger.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !a.table(out) {
		return writeJSON(out, accounts)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tID\tCODE\tNAME\tTOTAL\tPAID\tREMAINING\tMANAGER\tLOCKED")
	for _, acc := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%t\n",
			acc.Index, acc.ID, acc.AccountCode, acc.AccountName,
			acc.TotalAmount, acc.Paid(), acc.RemainingAmount, acc.Manager, acc.Locked)
	}
	return tw.Flush()
}
