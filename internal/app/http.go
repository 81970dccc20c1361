package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-board/internal/config"
	v1 "github.com/adanyl0v/go-task-board/internal/delivery/http/v1"
)

// Router builds the gin engine with every API route mounted.
func (a *App) Router() *gin.Engine {
	if a.cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	v1.RegisterRoutes(router, v1.New(
		a.logger,
		a.auth,
		a.sessions,
		a.profiles,
		a.tasks,
		a.cfg.Board.PageSize,
	))
	return router
}

// ListenAndServeHTTP blocks until SIGINT or SIGTERM, then shuts the server
// down within the configured timeout.
func (a *App) ListenAndServeHTTP() error {
	httpCfg := a.cfg.HTTP

	// Board streams live until their request context ends, so it is
	// cancelled as soon as the shutdown starts.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Addr:        net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:     a.Router(),
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			serveErr <- err
		}
	}()

	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	a.logger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		a.logger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		return err
	}
	a.logger.Info().Msg("shut down http server")
	return nil
}
