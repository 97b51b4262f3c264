package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"userapi/internal/service"
)

// Dependencies are the collaborators the routes are bound to.
// DB, Snapshots and Metrics are optional.
type Dependencies struct {
	DB        Pinger
	Users     service.UserService
	Snapshots service.SnapshotService
	Metrics   prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	users := app.Group("/users")
	users.Get("/", ListUsers(deps.Users))
	users.Post("/", CreateUser(deps.Users))

	if deps.Snapshots != nil {
		app.Post("/admin/snapshots", CreateSnapshot(deps.Snapshots))
	}
}
