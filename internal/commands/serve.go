package commands

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"gigfin/internal/cache"
	"gigfin/internal/cli"
	apphttp "gigfin/internal/http"
	"gigfin/internal/log"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 5 * time.Minute
)

type serveCmd struct {
	app  *App
	port string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the web dashboard and JSON API" }
func (*serveCmd) Usage() string {
	return `gigfin serve [-port <port>]

  Serves until SIGINT or SIGTERM, then drains in-flight requests.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "", "Listen port. Overrides PORT.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(ctx, func(ctx context.Context, env *cli.Env) error {
		if c.port != "" {
			env.Config.Port = c.port
		}
		ctx, stop := cli.GracefulShutdown(ctx, env.Logger)
		defer stop()
		return serve(ctx, env)
	})
}

// serve runs the server until ctx is cancelled.
func serve(ctx context.Context, env *cli.Env) error {
	logger := env.Logger
	srv, err := apphttp.NewServer(env.Config, env.Store, apphttp.WithLogger(logger))
	if err != nil {
		return err
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	for _, c := range srv.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(ctx, cacheCleanupInterval)
	defer caches.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting gigfin server",
			"port", env.Config.Port,
			log.FieldBackend, env.Config.DataBackend,
			"pdf", env.Config.PDFEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
