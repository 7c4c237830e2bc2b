package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/handler"
	"github.com/deppfellow/obsrecords/internal/repository"
	"github.com/deppfellow/obsrecords/internal/router"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/deppfellow/obsrecords/internal/service"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification worker",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rt.cfg.Primary.Env != "local" {
		if err := database.Migrate(ctx, &rt.log, rt.cfg); err != nil {
			rt.log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}

	srv, err := server.New(rt.cfg, &rt.log, rt.loggerService)
	if err != nil {
		rt.log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	services, err := service.NewService(srv, repository.NewRepositories())
	if err != nil {
		rt.log.Error().Err(err).Msg("could not create services")
		return err
	}

	srv.SetupHTTPServer(router.NewRouter(srv, handler.NewHandlers(srv, services)))

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			rt.log.Error().Err(err).Msg("server stopped unexpectedly")
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	rt.log.Info().Msg("server exited properly")
	return nil
}
