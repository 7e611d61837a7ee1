package app

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"webhook-ratelimiter/internal/handlers"
	"webhook-ratelimiter/internal/middleware"
	"webhook-ratelimiter/internal/server"
)

// Handler builds the router with all handlers configured
func (app *App) Handler() http.Handler {
	h := handlers.New(app.Registry, app.Store)

	opts := RouteOptions{
		AuthMiddleware: app.Auth.RequireAuth,
		Registry:       app.Registry,
		Gatherer:       app.Metrics,
	}
	if app.Config.RateLimitEnabled {
		opts.WebhookLimit = &middleware.RateLimitOptions{
			Limit:  app.Settings.DefaultLimit,
			Window: app.Settings.DefaultWindow,
		}
	}

	router := mux.NewRouter()
	SetupRoutes(router, h, opts)
	return router
}

// RunServer creates the HTTP server for the application
func (app *App) RunServer() *server.Server {
	return server.New(app.Handler(), ":"+app.Config.Port, "", "")
}

// Shutdown stops background work; Cleanup releases the store afterwards.
func (app *App) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		app.Registry.Dispose()
		close(done)
	}()

	select {
	case <-done:
		app.Logger.Info("Rate limiter stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
