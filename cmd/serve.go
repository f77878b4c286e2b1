package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scorer/internal/api"
	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/scorer"
	"github.com/sells-group/lead-scorer/internal/store"
)

var (
	servePort   int
	serveSource string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead scoring HTTP API",
	Long: `Serve GET /api/leads, POST /api/leads/score, GET /api/weights, /health,
and /metrics. Send SIGHUP to reload weights from config without restarting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if serveSource != "" {
			cfg.Source.URI = serveSource
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		engine, holder, err := newEngine(cfg)
		if err != nil {
			return err
		}

		leads, st, err := leadProvider(ctx, cfg, cfg.Source.URI)
		if err != nil {
			return err
		}
		leads = guardSource(cfg, leads)

		var opts []api.Option
		if cfg.Server.PersistRuns {
			if st == nil {
				if st, err = store.Open(ctx, cfg.Store); err != nil {
					return err
				}
			}
			opts = append(opts, api.WithRunRecorder(st))
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		go watchReload(ctx, holder)

		srv := api.New(engine, leads, cfg.Server, opts...).NewHTTPServer()

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("source", cfg.Source.URI),
			zap.Bool("persist_runs", cfg.Server.PersistRuns),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// watchReload re-resolves weights on SIGHUP until ctx is done.
func watchReload(ctx context.Context, holder *scorer.WeightsHolder) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := reloadWeights(config.Load, holder); err != nil {
				zap.L().Error("weights reload failed; keeping current weights", zap.Error(err))
			}
		}
	}
}

// reloadWeights loads fresh config and publishes its weights. Invalid
// weights leave the holder untouched.
func reloadWeights(load func() (*config.Config, error), holder *scorer.WeightsHolder) error {
	c, err := load()
	if err != nil {
		return err
	}
	w, err := scorer.ResolveWeights(c.Scoring)
	if err != nil {
		return err
	}
	return holder.Store(w)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveSource, "source", "", "lead source: file path, URL, or \"store\" (default from config)")
	rootCmd.AddCommand(serveCmd)
}
