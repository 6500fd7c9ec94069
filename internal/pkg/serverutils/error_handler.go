package serverutils

import (
	"errors"

	"text2sql-be/pkg/sqlrag"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware translates pipeline errors into HTTP responses so
// controllers can just return errors upward.
//
// Selection and retry exhaustion are client-visible outcomes of the question
// itself, model misbehavior maps to 502, everything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		var (
			selErr  *sqlrag.SelectionError
			maxErr  *sqlrag.MaxRetriesExceededError
			genErr  *sqlrag.GenerationError
			compErr *sqlrag.CompositionError
			retErr  *sqlrag.RetrievalError
		)
		switch {
		case errors.As(err, &selErr):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(selErr.Error()))
		case errors.As(err, &maxErr):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(maxErr.Error()))
		case errors.As(err, &genErr):
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(genErr.Error()))
		case errors.As(err, &compErr):
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(compErr.Error()))
		case errors.As(err, &retErr):
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(retErr.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
