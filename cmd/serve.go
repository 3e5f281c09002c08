package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/coursekeep/internal/api"
	"github.com/tanq16/coursekeep/internal/app"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/output"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve [MANIFEST]",
		Short: "Serve the course outline over HTTP",
		Long: `Serve the course outline and download controls as a JSON API.

Send SIGHUP to reload the manifest without restarting.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a := loadApp(ctx, args[0])
			if port == "" {
				port = cfg.Serve.Port
			}
			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           api.NewRouter(a),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go reloadOnHangup(ctx, a, args[0])
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			log.Info().Str("op", "cmd/serve").Msgf("serving %s on :%s", a.Course.ID, port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				output.PrintError(fmt.Sprintf("Server error: %v", err))
				os.Exit(1)
			}
			a.Wait()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default from config, 8080)")
	return cmd
}

func reloadOnHangup(ctx context.Context, a *app.Context, manifestPath string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			c, err := course.LoadManifest(manifestPath)
			if err != nil {
				log.Error().Str("op", "cmd/serve").Err(err).Msg("reload failed, keeping current manifest")
				continue
			}
			if err := a.Reload(ctx, c); err != nil {
				log.Error().Str("op", "cmd/serve").Err(err).Msg("reload failed")
				continue
			}
			log.Info().Str("op", "cmd/serve").Msgf("reloaded %s", manifestPath)
		}
	}
}
