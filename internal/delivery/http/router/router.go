// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"clinicore/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler *handler.AuthHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler *handler.AuthHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler: params.AuthHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// External login routes
	authGroup := e.Group("/auth")
	{
		authGroup.GET("/google/login", r.authHandler.BeginGoogleLogin)
		// Google redirects with GET by default; response_mode=form_post arrives as POST.
		authGroup.GET("/google/callback", r.authHandler.GoogleCallback)
		authGroup.POST("/google/callback", r.authHandler.GoogleCallback)
	}
}
