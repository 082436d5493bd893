package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/httpapi"
)

func newTokenCmd(app *App, opts *globalOpts) *cobra.Command {
	var ttl time.Duration
	var perms []string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for --employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil || app.Config.HTTP.JWTSecret == "" {
				return errors.New("token: http.jwt_secret is not configured")
			}
			actor := domain.Actor{
				TenantID:       opts.tenant,
				OrganizationID: opts.org,
				EmployeeID:     opts.employee,
			}
			if err := (domain.Scope{TenantID: actor.TenantID, OrganizationID: actor.OrganizationID, EmployeeID: actor.EmployeeID}).Validate(); err != nil {
				return err
			}
			for _, p := range perms {
				actor.Permissions = append(actor.Permissions, domain.Permission(p))
			}
			token, err := httpapi.IssueToken([]byte(app.Config.HTTP.JWTSecret), actor, ttl, app.now())
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "Permissions to grant, e.g. ALLOW_MANUAL_TIME")
	return cmd
}
