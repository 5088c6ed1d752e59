package main

import (
	"fmt"
	"time"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/services/oauth"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var subject string
	var scopes []string
	var lifetime time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := oauth.IssueToken(subject, scopes, lifetime)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "dev", "token subject (session owner)")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{config.ScopeChatWrite}, "granted scopes")
	cmd.Flags().DurationVar(&lifetime, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
