package main

import (
	"fmt"
	"os"
	"time"

	"tripgraph/pkg/auth"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenScope   string
	tokenIssuer  string
	tokenTTL     time.Duration

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the events API (reads JWT_SECRET)",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "tripctl", "token subject")
	tokenCmd.Flags().StringVar(&tokenScope, "scope", "events", "token scope")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "tripgraph", "token issuer, must match JWT_ISSUER of the API")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, _ []string) error {
	generator, err := auth.NewJWTGenerator(os.Getenv("JWT_SECRET"), tokenIssuer, tokenTTL)
	if err != nil {
		return fmt.Errorf("JWT_SECRET must be set: %w", err)
	}
	token, err := generator.GenerateToken(tokenSubject, tokenScope)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
