package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"clinic-orchestrator/cmd/bootstrap"
	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/delivery/dto"

	"github.com/spf13/cobra"
)

// dev-token stands in for the external auth service on development machines: it signs
// an access token for an existing user and registers it the way the auth middleware expects.
func devTokenCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Issue an access token for an existing user (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.New(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Close()

			if app.Config.App.Env == "production" {
				return errors.New("dev-token is disabled in production")
			}

			token, err := issueDevToken(ctx, app, email)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(token)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the user to sign in as")
	cmd.MarkFlagRequired("email")
	return cmd
}

func issueDevToken(ctx context.Context, app *bootstrap.App, email string) (*dto.DevTokenResponse, error) {
	user, err := app.Repositories.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", email)
	}

	token, tokenID, err := app.JWT.GenerateAccessToken(user.ID, user.Email, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	expiry := app.JWT.GetAccessExpiry()
	key := fmt.Sprintf("access_token:%s:%s", user.ID, tokenID)
	if err := app.RedisClient.Set(ctx, key, "1", expiry).Err(); err != nil {
		return nil, fmt.Errorf("failed to register token: %w", err)
	}

	return &dto.DevTokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(expiry.Seconds()),
		User:        *converter.UserToResponse(user),
	}, nil
}
