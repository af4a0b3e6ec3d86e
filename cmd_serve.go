package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	apix "github.com/tanpawarit/chative-sei/api"
	configx "github.com/tanpawarit/chative-sei/pkg/config"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat and lookup HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpCfg, err := configx.New[apix.Config]("HTTP")
	if err != nil {
		return fmt.Errorf("load http config: %w", err)
	}

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	status := startBundle(ctx, app.bundle, app.store.Root())

	server := apix.NewApp(*httpCfg, apix.Deps{
		Lookup:   app.lookup,
		Chat:     app.chat,
		Recorder: app.recorder,
		Ready:    status.Ready,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", httpCfg.Addr).Msg("http server listening")
		if err := server.Listen(httpCfg.Addr); err != nil {
			return fmt.Errorf("listen %s: %w", httpCfg.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("http server shutting down")
		if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
