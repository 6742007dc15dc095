package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/shared"
)

type LivesHandler struct {
	livesSvc LivesServiceInterface
}

func NewLivesHandler(livesSvc LivesServiceInterface) *LivesHandler {
	return &LivesHandler{
		livesSvc: livesSvc,
	}
}

// @Summary Get lives state
// @Description Return the lives pool after settling pending regeneration
// @Tags lives
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.LivesResponse}
// @Router /api/v1/me/lives [get]
func (h *LivesHandler) GetLives(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.livesSvc.GetLives(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Consume a life
// @Description Manually spend one life, with the same semantics as a wrong answer
// @Tags lives
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param actionRequest body dto.LivesActionRequest true "Action to perform"
// @Success 200 {object} shared.Response{data=dto.LivesResponse}
// @Router /api/v1/me/lives [post]
func (h *LivesHandler) LivesAction(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.LivesActionRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.livesSvc.ConsumeLife(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Life consumed", resp)
}
