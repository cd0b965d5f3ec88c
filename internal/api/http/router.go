package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/squareit/account-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Email   *handlers.EmailHandler
	Records *handlers.RecordsHandler
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	rest := app.Group("/rest")

	users := rest.Group("/user/v1")
	users.Put("/upsertUser", cfg.Users.Create)
	users.Put("/upsertUser/:email/:token", cfg.Users.Update)
	users.Post("/login", cfg.Users.Login)
	users.Get("/getUser/:token", cfg.Users.Get)
	users.Get("/countUsers/:token", cfg.Users.Count)
	users.Delete("/deleteUser/:token", cfg.Users.Delete)

	email := rest.Group("/email/v1")
	email.Get("/registrationEmail/:token", cfg.Email.RegistrationEmail)
	email.Get("/resendRegistrationEmail/:email", cfg.Email.ResendRegistrationEmail)
	email.Get("/confirmRegistration/:token", cfg.Email.ConfirmRegistration)

	numbers := rest.Group("/number/v1")
	numbers.Put("/saveNumber", cfg.Records.Save)
	numbers.Put("/deleteNumber", cfg.Records.Delete)
	numbers.Get("/getNumber/:token/:numberId", cfg.Records.Get)
	numbers.Get("/countUserNumbers/:token", cfg.Records.Count)
	numbers.Get("/getUserNumbers/:token/:indexPage", cfg.Records.List)
}
