package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/shared"
)

type DistributionHandler struct {
	distributionSvc DistributionServiceInterface
}

func NewDistributionHandler(distributionSvc DistributionServiceInterface) *DistributionHandler {
	return &DistributionHandler{
		distributionSvc: distributionSvc,
	}
}

// @Summary Run a prize distribution
// @Description Selects three winners (fastest recent wins, then a draw among recent players, then among never-rewarded players) and records them
// @Tags distribution
// @Produce json
// @Security BearerAuth
// @Success 200 {object} shared.Response{data=dto.DistributionResponse}
// @Failure 400 {object} shared.Response
// @Failure 401 {object} shared.Response
// @Router /distribution/start [post]
func (h *DistributionHandler) StartDistribution(c *fiber.Ctx) error {
	rec, err := h.distributionSvc.StartDistribution(c.UserContext())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", dto.NewDistributionResponse(*rec))
}

// @Summary Get the last distribution
// @Description Returns an empty object when no distribution was recorded yet
// @Tags distribution
// @Produce json
// @Success 200 {object} shared.Response{data=dto.DistributionResponse}
// @Router /distribution/last [get]
func (h *DistributionHandler) GetLast(c *fiber.Ctx) error {
	rec, err := h.distributionSvc.Last(c.UserContext())
	if err != nil {
		return err
	}
	if rec == nil {
		return shared.ResponseJSON(c, fiber.StatusOK, "Success", fiber.Map{})
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", dto.NewDistributionResponse(*rec))
}

// @Summary Get the last winners
// @Tags distribution
// @Produce json
// @Success 200 {object} shared.Response{data=dto.WinnersResponse}
// @Router /distribution/winners [get]
func (h *DistributionHandler) GetWinners(c *fiber.Ctx) error {
	rec, err := h.distributionSvc.Last(c.UserContext())
	if err != nil {
		return err
	}

	winners := []model.Winner{}
	if rec != nil && rec.Winners != nil {
		winners = rec.Winners
	}
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", dto.WinnersResponse{Winners: winners})
}

// @Summary Get distribution history
// @Description Newest first
// @Tags distribution
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param per_page query int false "Page size (default 10)"
// @Success 200 {object} shared.Response{data=dto.DistributionHistoryResponse}
// @Failure 400 {object} shared.Response
// @Router /distribution/history [get]
func (h *DistributionHandler) GetHistory(c *fiber.Ctx) error {
	query := dto.HistoryQuery{
		Page:    shared.DefaultHistoryPage,
		PerPage: shared.DefaultHistoryPerPage,
	}

	var details []dto.ValidationError
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, dto.ValidationError{Field: "page", Message: "page must be an integer"})
		}
		query.Page = page
	}
	if raw := c.Query("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, dto.ValidationError{Field: "per_page", Message: "per_page must be an integer"})
		}
		query.PerPage = perPage
	}
	if len(details) > 0 {
		return shared.NewValidationError(strconv.ErrSyntax, details)
	}

	if err := query.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	history, err := h.distributionSvc.History(c.UserContext(), query.Page, query.PerPage)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", history)
}
