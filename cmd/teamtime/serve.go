package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	handler "github.com/christopherklint97/teamtime/internal/handler/http"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve the absence, report and birthday endpoints over HTTP.

Callers authenticate with their own Teamleader access token in the
Authorization header; their directory permissions decide which endpoints
they may use.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	now := func() time.Time { return time.Now().In(a.cfg.Location()) }
	router := handler.NewRouter(
		handler.RouterOptions{
			AllowedOrigins: a.cfg.Server.AllowedOrigins,
			Logger:         handler.NewLogger(os.Stdout, level),
			LogLevel:       slog.LevelInfo,
		},
		a.client,
		a.db,
		handler.NewAbsenceHandler(a.reports, now),
		handler.NewReportHandler(a.reports),
		handler.NewBirthdayHandler(a.client, a.cfg.Teamleader.CompanyID, now),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	ctx := cmd.Context()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
