package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"symonectl/internal/state"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "State database utilities (postgres backend)",
	}
	cmd.AddCommand(dbInitCmd())
	return cmd
}

func dbInitCmd() *cobra.Command {
	var dsn, schemaPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the client_state schema in PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				cfg, err := loadConfig()
				if err == nil {
					dsn = cfg.State.DSN
				}
			}
			if dsn == "" {
				return fmt.Errorf("missing --dsn (or set state.dsn / DATABASE_URL)")
			}
			schema := state.PostgresSchema
			if schemaPath != "" {
				b, err := os.ReadFile(schemaPath)
				if err != nil {
					return fmt.Errorf("read schema: %w", err)
				}
				schema = string(b)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			st, err := state.OpenPostgres(ctx, dsn)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.ExecSQL(ctx, schema); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(cmd.OutOrStdout()).Render("ok:"), "schema applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema SQL file (defaults to the built-in schema)")
	return cmd
}
