package cli

import (
	"complaint-service/internal/repository"

	"github.com/spf13/cobra"
)

// migrateCmd applies database migrations and exits
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, cfg.Database.MaxOpenConns, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		return repository.MigrateDB(db, logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
