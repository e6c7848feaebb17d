package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/address-forecast/internal/store"
	"github.com/i474232898/address-forecast/internal/weather"
)

var validate = validator.New()

const msgInvalidAddress = "Please provide a valid address"

// ForecastService resolves an address into a grouped forecast.
type ForecastService interface {
	GetForecast(ctx context.Context, address string) (weather.GroupedForecast, error)
}

// HealthSource reports recorded upstream probes.
type HealthSource interface {
	LatestAll() []weather.UpstreamStatus
	Latest(name string) (weather.UpstreamStatus, error)
	History(name string) ([]weather.UpstreamStatus, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// health may be nil when probes are disabled.
func RegisterRoutes(app *fiber.App, service ForecastService, health HealthSource) {
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		upstreams := fiber.Map{}
		if health != nil {
			for _, u := range health.LatestAll() {
				upstreams[u.Name] = u
				if !u.Up {
					status = "degraded"
				}
			}
		}
		return c.JSON(fiber.Map{
			"status":    status,
			"service":   app.Config().AppName,
			"upstreams": upstreams,
		})
	})

	app.Get("/health/:name", func(c *fiber.Ctx) error {
		name := c.Params("name")
		if health == nil {
			return fiber.NewError(fiber.StatusNotFound, "Upstream probes are disabled")
		}
		latest, err := health.Latest(name)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("No probe results for %q", name))
		}
		if err != nil {
			return err
		}
		history, err := health.History(name)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"latest":  latest,
			"history": history,
		})
	})

	api := app.Group("/api")

	api.Post("/forecast", func(c *fiber.Ctx) error {
		var req forecastRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, msgInvalidAddress)
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, msgInvalidAddress)
		}
		return respondForecast(c, service, req.Address)
	})

	v1 := api.Group("/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		req := forecastRequest{Address: c.Query("address")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, msgInvalidAddress)
		}
		return respondForecast(c, service, req.Address)
	})
}

// forecastRequest is the body of POST /api/forecast.
type forecastRequest struct {
	Address string `json:"address" validate:"required"`
}

func respondForecast(c *fiber.Ctx, service ForecastService, address string) error {
	grouped, err := service.GetForecast(c.UserContext(), address)
	if err != nil {
		var werr *weather.Error
		if errors.As(err, &werr) {
			return fiber.NewError(werr.HTTPStatus(), werr.Message)
		}
		return err
	}
	return c.JSON(grouped)
}
