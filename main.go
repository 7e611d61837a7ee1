package main

import (
	"os"

	_ "webhook-ratelimiter/docs"
	"webhook-ratelimiter/internal/app"
)

// @title Webhook Rate Limiter API
// @version 1.0
// @description Two-tier sliding-window rate limiting for webhook deliveries and internal services.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := app.Run(); err != nil {
		os.Exit(1)
	}
}
