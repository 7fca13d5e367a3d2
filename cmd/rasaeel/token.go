package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rasaeel/rasaeel/internal/auth"
	"github.com/rasaeel/rasaeel/internal/config"
	"github.com/rasaeel/rasaeel/internal/merchants"
)

func newTokenCommand() *cobra.Command {
	var sealPageToken string
	cmd := &cobra.Command{
		Use:   "token <merchant-id>",
		Short: "Mint a dashboard JWT for a merchant",
		Long: `Mint a dashboard JWT for a merchant.

With --seal the command instead encrypts a page access token with
TOKEN_ENCRYPTION_KEY so it can be stored in merchants.page_access_token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := provideConfig()
			if err != nil {
				return err
			}
			if sealPageToken != "" {
				cipher, err := merchants.NewTokenCipher(cfg.Meta.TokenEncryptionKey)
				if err != nil {
					return err
				}
				sealed, err := cipher.Seal(sealPageToken)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sealed)
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("merchant id is required")
			}
			merchantID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid merchant id: %w", err)
			}
			token, expiresAt, err := mintToken(cfg, merchantID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&sealPageToken, "seal", "", "page access token to encrypt")
	return cmd
}

func mintToken(cfg config.Config, merchantID uuid.UUID) (string, time.Time, error) {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid jwt_expires_in: %w", err)
	}
	return auth.GenerateToken(merchantID, cfg.Auth.JWTSecret, expiresIn)
}
