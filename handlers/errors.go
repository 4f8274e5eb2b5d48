// handlers/errors.go
package handlers

import (
	"errors"
	"log"

	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to its HTTP status with the usual error body.
func respondError(c *fiber.Ctx, err error, message string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrItemNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidItemType), errors.Is(err, services.ErrUnknownEvent),
		errors.Is(err, services.ErrInvalidDelta):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientBalance), errors.Is(err, services.ErrAlreadyGranted),
		errors.Is(err, services.ErrWindowConsumed):
		status = fiber.StatusConflict
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ %s %s: %s: %v", c.Method(), c.Path(), message, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"cause":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string, cause error) error {
	body := fiber.Map{"success": false, "error": message}
	if cause != nil {
		body["cause"] = cause.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
