package token

import (
	"fmt"

	"github.com/spf13/cobra"

	"metergate/internal/infrastructure/auth"
	"metergate/internal/infrastructure/config"
)

var (
	env    string
	orgSID string
	admin  bool
)

// NewCommand issues bearer tokens for the HTTP API. Operational convenience
// for bootstrapping integrations and admin access.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Long:  `Issue a service token bound to one organization, or an admin token.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVar(&orgSID, "org", "", "Organization SID the service token is bound to")
	cmd.Flags().BoolVar(&admin, "admin", false, "Issue an admin token instead of a service token")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)

	var token string
	switch {
	case admin:
		token, err = jwtService.GenerateAdminToken()
	case orgSID != "":
		token, err = jwtService.GenerateServiceToken(orgSID)
	default:
		return fmt.Errorf("either --org or --admin is required")
	}
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println(token)
	return nil
}
