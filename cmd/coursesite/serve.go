package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfassina/coursesite/internal/index"
)

func serveCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build, serve the output directory and rebuild on changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			// A dev server keeps going past broken documents.
			a.cfg.SkipFailed = true

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := a.openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			conv := a.converter()
			indexer := index.NewIndexer(db, a.cfg.ContentDir, conv)
			b, err := a.builder(conv)
			if err != nil {
				return err
			}
			b.WithIndexer(indexer)

			a.logger.Info("initial build")
			if _, err := b.Build(ctx); err != nil {
				return err
			}

			// Changes only kick the rebuild loop; bursts collapse into one build.
			kick := make(chan struct{}, 1)
			w, err := index.NewWatcher(nil, a.cfg.ContentDir, a.logger, func(string) {
				select {
				case kick <- struct{}{}:
				default:
				}
			})
			if err != nil {
				return err
			}
			defer w.Stop()
			go w.Start(ctx)

			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-kick:
						a.logger.Info("rebuilding")
						if _, err := b.Build(ctx); err != nil {
							a.logger.Error("rebuild", "err", err)
						}
					}
				}
			}()

			srv := &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           logRequests(a, http.FileServer(http.Dir(a.cfg.OutputDir))),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			a.logger.Info("serving", "addr", a.cfg.Listen, "dir", a.cfg.OutputDir)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	return cmd
}

func logRequests(a *app, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
