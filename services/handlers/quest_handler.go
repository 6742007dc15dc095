package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/djimmy2web/certifdiag_api/shared"
)

type QuestHandler struct {
	questSvc QuestServiceInterface
}

func NewQuestHandler(questSvc QuestServiceInterface) *QuestHandler {
	return &QuestHandler{
		questSvc: questSvc,
	}
}

// @Summary Get daily quests
// @Description Return today's deterministic quest subset with fresh progress
// @Tags quest
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.DailyQuestsResponse}
// @Router /api/v1/me/quests [get]
func (h *QuestHandler) GetDailyQuests(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.questSvc.GetDailyQuests(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
