package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/talkauth/internal/store/pg"
)

func newMigrateCmd(cl *cli) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplicar las migraciones de Postgres pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := cl.config()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("storage.driver es %q; migrate requiere postgres", cfg.Storage.Driver)
			}
			st, err := pg.Open(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxConns)
			if err != nil {
				return err
			}
			defer st.Close()

			if dryRun {
				pending, err := pg.DefaultMigrator().Pending(ctx, st.Pool())
				if err != nil {
					return err
				}
				cl.print(map[string]any{"pending": pending}, fmt.Sprintf("pending: %v", pending))
				return nil
			}

			res, err := st.Migrate(ctx)
			if err != nil {
				return err
			}
			cl.print(res, fmt.Sprintf("applied=%v skipped=%v (%s)", res.Applied, res.Skipped, res.Duration))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Solo listar las versiones pendientes")
	return cmd
}
