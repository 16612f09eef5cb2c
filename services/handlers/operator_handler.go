package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/shared"
)

type OperatorHandler struct {
	authSvc AuthServiceInterface
}

func NewOperatorHandler(authSvc AuthServiceInterface) *OperatorHandler {
	return &OperatorHandler{
		authSvc: authSvc,
	}
}

// @Summary Operator login
// @Description Exchanges the operator password for a bearer token used by distribution start
// @Tags operator
// @Accept  json
// @Produce json
// @Param loginRequest body dto.OperatorLoginRequest true "Operator password"
// @Success 200 {object} shared.Response{data=dto.OperatorLoginResponse}
// @Failure 401 {object} shared.Response
// @Router /operator/login [post]
func (h *OperatorHandler) Login(c *fiber.Ctx) error {
	var req dto.OperatorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	resp, err := h.authSvc.Login(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
