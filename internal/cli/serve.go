package cli

import (
	"fmt"

	"github.com/ppiankov/ticketdebate/internal/metrics"
	"github.com/ppiankov/ticketdebate/internal/pipeline"
	"github.com/ppiankov/ticketdebate/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the debate API over HTTP",
	Long: `Serve exposes debates and transcript history as a JSON API:

  POST   /v1/debates              multipart: image or text, additional_context, rounds
  GET    /v1/debates              list stored transcript ids
  GET    /v1/debates/{ticketID}   fetch a stored transcript
  DELETE /v1/debates/{ticketID}   delete a stored transcript
  GET    /healthz                 liveness
  GET    /metrics                 Prometheus metrics

Example:
  ticketdebate serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := newLogger(cfg)

	m := metrics.New()
	p, err := pipeline.Build(cfg, logger, m)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	srv := server.New(p, p.Store(),
		server.WithMetrics(m.Handler()),
		server.WithLogger(logger),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		server.WithMaxRounds(cfg.Debate.MaxRoundsOverride),
	)

	if err := server.ListenAndServe(cmd.Context(), cfg.Server.Addr, srv.Handler(), logger); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
