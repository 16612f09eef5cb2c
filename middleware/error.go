package middleware

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler renders every error returned by a handler in the response
// envelope. Unknown errors become a 500 and are logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			log.WithFields(log.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Errorf("Request failed: %v", appErr)
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(validationErrs))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Errorf("Unhandled error: %v", err)
	return shared.ResponseInternalError(c)
}
