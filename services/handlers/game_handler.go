package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/shared"
)

type GameHandler struct {
	gameSvc GameServiceInterface
}

func NewGameHandler(gameSvc GameServiceInterface) *GameHandler {
	return &GameHandler{
		gameSvc: gameSvc,
	}
}

// @Summary Start a game
// @Description Registers the player and makes the new game the active one. Either phone or email is required.
// @Tags game
// @Accept  json
// @Produce json
// @Param startRequest body dto.StartRequest true "Player identity"
// @Success 200 {object} shared.Response{data=dto.StartResponse}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /start [post]
func (h *GameHandler) Start(c *fiber.Ctx) error {
	var req dto.StartRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.gameSvc.StartGame(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Submit a guess
// @Description Compares the guess with the hidden word, ignoring case. A correct guess ends the game as won.
// @Tags game
// @Accept  json
// @Produce json
// @Param verifyRequest body dto.VerifyRequest true "Guess"
// @Success 200 {object} shared.Response{data=dto.VerifyResponse}
// @Failure 400 {object} shared.Response
// @Router /verify [post]
func (h *GameHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	correct, err := h.gameSvc.Verify(c.UserContext(), req.Guess)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", dto.VerifyResponse{Correct: correct})
}

// @Summary Abandon the game
// @Tags game
// @Produce json
// @Success 200 {object} shared.Response{data=dto.StatusResponse}
// @Failure 400 {object} shared.Response
// @Router /end [post]
func (h *GameHandler) End(c *fiber.Ctx) error {
	if err := h.gameSvc.EndGame(c.UserContext()); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", dto.StatusResponse{Status: "abandoned"})
}

// @Summary Ask the oracle
// @Description Sends a question about the hidden word. When the oracle cannot answer, a fallback reply is returned with degraded set.
// @Tags game
// @Accept  json
// @Produce json
// @Param askRequest body dto.AskRequest true "Question"
// @Success 200 {object} shared.Response{data=dto.AskResponse}
// @Failure 400 {object} shared.Response
// @Router /stream [post]
func (h *GameHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.gameSvc.Ask(c.UserContext(), req.Question)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
