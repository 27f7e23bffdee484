package cli

import (
	"fmt"

	"complaint-service/internal/config"
	"complaint-service/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "complaint-service",
	Short: "Complaint intake and enrichment service",
	Long: `complaint-service accepts customer complaints over HTTP, enriches them
with sentiment, spam and geolocation lookups, classifies them with an LLM
and stores them in PostgreSQL or SQLite.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yml", "path to the YAML config file")
}

// bootstrap loads the config file and builds the logger shared by all commands.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return cfg, logger, nil
}
