package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/address-forecast/internal/common"
	"github.com/i474232898/address-forecast/internal/weather"
)

// requestIDLocal is the fiber locals key holding the request ID.
const requestIDLocal = "requestid"

// NewApp creates the Fiber app with the service's error handler and global
// middleware. Request contexts derive from base, so cancelling base aborts
// in-flight upstream calls.
func NewApp(base context.Context, name string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler:          ErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDLocal,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(requestContext(base))

	return app
}

// ErrorHandler writes every failure as {"error": message}. Errors that are
// not *fiber.Error never expose their text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := weather.MessageUnexpected

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		slog.ErrorContext(c.UserContext(), "unhandled request error",
			"request_id", common.RequestID(c.UserContext()),
			"path", c.Path(),
			"error", err,
		)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

func requestContext(base context.Context) fiber.Handler {
	if base == nil {
		base = context.Background()
	}
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(base)
		defer cancel()

		if id, ok := c.Locals(requestIDLocal).(string); ok {
			ctx = common.WithRequestID(ctx, id)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
