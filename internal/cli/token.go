package cli

import (
	"errors"
	"fmt"
	"time"

	"complaint-service/internal/config"
	"complaint-service/internal/middleware"

	"github.com/spf13/cobra"
)

var (
	tokenRole string
	tokenTTL  time.Duration
)

// tokenCmd mints a bearer token for an API client
var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue an API token signed with auth.jwt_secret",
	Long: `Issue an HS256 bearer token for the /api/v1 routes.

Example:
  complaint-service token support-portal --ttl 720h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is not configured")
		}

		token, expiresAt, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), args[0], tokenRole, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenRole, "role", "client", "role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
