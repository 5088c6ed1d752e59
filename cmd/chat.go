package main

import (
	"os"
	"os/signal"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/services"
	"github.com/deepgram/pdfchat/internal/services/chat"
	"github.com/deepgram/pdfchat/internal/terminal"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			backend, err := services.NewBackend(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			controller := chat.NewController(backend, chat.WithTimeout(cfg.BackendTimeout))
			return terminal.Run(ctx, controller, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
