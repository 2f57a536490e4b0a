package cli

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/lguimbarda/termflow/flow"
	flowsql "github.com/lguimbarda/termflow/flow/sql"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(opts *RootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query against a SQLite database, one element per row",
		Long: `Run a query against a SQLite database and print one element per row.
Columns of a row are joined with ':'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sql.Open("sqlite3", dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer db.Close()

			rows := flowsql.QueryStrings(db, args[0])
			joined := flow.Map(func(cols []string) (string, error) {
				return strings.Join(cols, ":"), nil
			})
			return run(cmd, opts, flow.Through(rows, joined))
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
