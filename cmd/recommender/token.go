package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/gift-recommender/internal/config"
	"github.com/jonathan/gift-recommender/internal/server"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long: `Sign a bearer token for the given user with JWT_SECRET. Production tokens come from the
auth service; this is for exercising the API locally.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID to put in the token (required)")
	_ = tokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	token, err := mintToken(tokenUserID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func mintToken(rawUserID string) (string, error) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return "", fmt.Errorf("invalid user_id format: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return "", err
	}
	return server.NewJWTService(jwtConfig).GenerateToken(userID)
}
