package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/shared/models"
)

type sessionEntry struct {
	Token string `json:"token"`
	models.UserSession
}

func newSessionsCmd(a *adminClient) *cobra.Command {
	cmd := &cobra.Command{Use: "sessions", Short: "Inspect and clean up sessions"}
	cmd.AddCommand(&cobra.Command{Use: "list", Short: "List stored sessions", Args: cobra.NoArgs, RunE: a.listSessions})
	cmd.AddCommand(&cobra.Command{Use: "sweep", Short: "Rewrite the sessions document without expired sessions", Args: cobra.NoArgs, RunE: a.sweepSessions})
	return cmd
}

func (a *adminClient) listSessions(cmd *cobra.Command, args []string) error {
	st, svcs, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := svcs.Sessions.List(cmd.Context())
	if err != nil {
		return err
	}
	entries := make([]sessionEntry, 0, len(sessions))
	for token, sess := range sessions {
		entries = append(entries, sessionEntry{Token: token, UserSession: sess})
	}
	sortByLoginTime(entries)

	out := cmd.OutOrStdout()
	if !a.table(out) {
		return writeJSON(out, entries)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tUSERNAME\tVIEWER\tLOGIN_TIME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", e.Token, e.Username, e.IsViewer, e.LoginTime)
	}
	return tw.Flush()
}

// sortByLoginTime orders entries oldest first. Unparseable times go last,
// ties break on token.
func sortByLoginTime(entries []sessionEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, erri := entries[i].LoggedInAt()
		tj, errj := entries[j].LoggedInAt()
		switch {
		case erri != nil && errj != nil:
			return entries[i].Token < entries[j].Token
		case erri != nil:
			return false
		case errj != nil:
			return true
		case !ti.Equal(tj):
			return ti.Before(tj)
		}
		return entries[i].Token < entries[j].Token
	})
}

// sweepSessions persists the cleanup. Sessions already expired on disk are
// dropped while loading, so the documents are rewritten unconditionally.
func (a *adminClient) sweepSessions(cmd *cobra.Command, args []string) error {
	st, svcs, err := a.openForWrite(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := svcs.Sessions.SweepExpired(cmd.Context()); err != nil {
		return err
	}
	if err := st.SaveAll(cmd.Context()); err != nil {
		return err
	}
	sessions, err := svcs.Sessions.List(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d active sessions kept\n", len(sessions))
	return nil
}
