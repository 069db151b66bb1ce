package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/maestrohq/maestro/pkg/providers"
	"github.com/maestrohq/maestro/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

// handleServiceError maps service layer errors onto problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err) ||
		errors.Is(err, providers.ErrUnknownProvider) ||
		errors.Is(err, providers.ErrProviderMismatch):
		return badRequest(c, err.Error())

	case errors.Is(err, services.ErrAuthenticationFailed):
		problem := problems.NewStatusProblem(401).
			WithInstance(c.Path()).
			WithType("authentication_failed").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnauthorized).JSON(problem)

	case services.IsNotFoundError(err):
		return notFound(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		// Unexpected errors keep their detail out of the response.
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
