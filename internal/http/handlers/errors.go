package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"kioskpos/internal/client"
	"kioskpos/internal/domain"
	applog "kioskpos/internal/log"
	"kioskpos/internal/services"
)

const (
	msgUpstream = "The store server is not responding. Please try again."
	msgInternal = "Something went wrong. Please try again."
)

// classify maps a service error to a status and a message safe to show.
func classify(c *fiber.Ctx, action string, err error) (int, string) {
	var ve *domain.ValidationError
	var ne *client.NetworkError
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "field": ve.Field})
		return fiber.StatusBadRequest, ve.Msg
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, "This item is no longer available"
	case client.IsStatus(err, http.StatusUnauthorized) || client.IsStatus(err, http.StatusForbidden):
		applog.Security(c, action, map[string]any{"reason": "upstream_auth"})
		return fiber.StatusForbidden, "Your admin session has expired. Please log in again."
	case errors.As(err, &ne):
		applog.Error(c, action, err, map[string]any{"op": ne.Op, "upstream_status": ne.Status})
		return fiber.StatusBadGateway, msgUpstream
	default:
		applog.Error(c, action, err, nil)
		return fiber.StatusInternalServerError, msgInternal
	}
}

func fail(c *fiber.Ctx, action string, err error) error {
	status, msg := classify(c, action, err)
	return c.Status(status).Render("notfound", fiber.Map{"Message": msg})
}

func failJSON(c *fiber.Ctx, action string, err error) error {
	status, msg := classify(c, action, err)
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
