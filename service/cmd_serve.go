package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	c "github.com/ImSeekingAlpha/Quant-trading-journey/service/core"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the http api",
	Long: `Serve the price, snapshot, gap and performance endpoints under /api and
prometheus metrics under /metrics.

Examples:
  quant serve
  quant serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides QU_ADDR")
}

func runServe(cmd *cobra.Command, args []string) error {
	// listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	sc, err := c.NewServiceContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	s := c.GetHttpServer(sc)

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Str("provider", cfg.Provider).Msg("starting server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	// wait here until ctrl+C or the server dies on its own
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("received shutdown signal, shutting down gracefully")

	// give in flight requests 10 seconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
