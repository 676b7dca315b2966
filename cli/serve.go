package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-lawfirm-console/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard",
		Long: `Serve the dashboard shell. The stored session is validated against the
backend in the background; guarded pages show a loading indicator until the
check completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("port", "", "listen port or host:port (default 127.0.0.1:8080)")
	_ = a.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	st, err := newStack(a.cfg)
	if err != nil {
		return fmt.Errorf("[serve] building session: %w", err)
	}

	srv, err := server.New(a.cfg, st.controller, st.guard, st.store, server.WithMetrics(st.collector, st.registry))
	if err != nil {
		return fmt.Errorf("[serve] %w", err)
	}

	displayAppname(a.cfg.GetAppName())
	httpServer := &http.Server{
		Addr:              a.cfg.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	go func() {
		checkCtx, cancel := context.WithTimeout(ctx, a.cfg.GetStartupCheckTimeout())
		defer cancel()
		snap := st.controller.Start(checkCtx)
		log.Info().Str("status", snap.Status.String()).Msg("Startup session check complete")
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
