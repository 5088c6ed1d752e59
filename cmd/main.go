package main

import (
	"net/http"
	"os"

	"github.com/deepgram/pdfchat/internal/api/v1/handlers"
	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/services"
	"github.com/deepgram/pdfchat/pkg/httpext"
	"github.com/deepgram/pdfchat/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	var pretty bool

	rootCmd := &cobra.Command{
		Use:           "pdfchat",
		Short:         "Ask questions about ingested PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Configure(logLevel, pretty)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.GetLogLevel(), "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human readable log output")

	rootCmd.AddCommand(newServeCmd(), newChatCmd(), newTokenCmd())
	return rootCmd
}

func setupRouter(svc *services.Services) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonResponse(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": svc.GetSessionManager().Count(),
			"streams":  svc.GetConnectionsManager().GetConnectionCount(),
		})
	}).Methods("GET")

	handlers.RegisterV1Routes(r, svc)
	return r
}
