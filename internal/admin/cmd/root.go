package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ledger/internal/logging"
	"ledger/internal/server/app"
	"ledger/internal/server/config"
	"ledger/internal/server/service"
	"ledger/internal/server/store"
)

// adminClient holds the storage settings shared by every subcommand.
type adminClient struct {
	cfg      config.Config
	jsonOnly bool
}

func NewRootCmd(version, buildDate string) *cobra.Command {
	a := &adminClient{cfg: config.Load()}
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Inspect and maintain ledger data",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.Backend, "backend", a.cfg.Backend, "Storage backend (json or sqlite)")
	flags.StringVar(&a.cfg.AccountsFile, "accounts-file", a.cfg.AccountsFile, "Accounts document for the json backend")
	flags.StringVar(&a.cfg.SessionsFile, "sessions-file", a.cfg.SessionsFile, "Sessions document for the json backend")
	flags.StringVar(&a.cfg.DatabaseDSN, "db-dsn", a.cfg.DatabaseDSN, "SQLite DSN for the sqlite backend")
	flags.DurationVar(&a.cfg.SessionTTL, "session-ttl", a.cfg.SessionTTL, "Session lifetime")
	flags.BoolVar(&a.jsonOnly, "json", false, "Always print JSON")

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newAccountsCmd(a))
	root.AddCommand(newSessionsCmd(a))
	root.AddCommand(newMappingCmd(a))
	return root
}

// open loads the configured store for reading. Load problems are reported
// on stderr and the affected collection reads as empty.
func (a *adminClient) open(cmd *cobra.Command) (*store.Store, *service.Services, error) {
	st, svcs, _, err := a.load(cmd)
	return st, svcs, err
}

// openForWrite is open for commands that rewrite the documents. It fails
// when any document could not be loaded, so an unreadable document is never
// replaced by an empty one.
func (a *adminClient) openForWrite(cmd *cobra.Command) (*store.Store, *service.Services, error) {
	st, svcs, loadErr, err := a.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	if loadErr != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("refusing to rewrite documents: %w", loadErr)
	}
	return st, svcs, nil
}

// load separates load failures, which leave a usable store, from errors that
// leave none.
func (a *adminClient) load(cmd *cobra.Command) (st *store.Store, svcs *service.Services, loadErr, err error) {
	logger := logging.NewJSON(cmd.ErrOrStderr(), slog.LevelWarn)
	st, err = app.OpenStore(cmd.Context(), a.cfg, logger)
	if st == nil {
		return nil, nil, nil, err
	}
	return st, service.NewServices(st, logger), err, nil
}

// table reports whether output goes to a terminal and should be tabular.
func (a *adminClient) table(w io.Writer) bool {
	if a.jsonOnly {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
