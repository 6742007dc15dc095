package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/djimmy2web/certifdiag_api/shared"
)

type ContentHandler struct {
	contentSvc ContentServiceInterface
}

func NewContentHandler(contentSvc ContentServiceInterface) *ContentHandler {
	return &ContentHandler{
		contentSvc: contentSvc,
	}
}

// @Summary List themes
// @Description Return all active quiz themes
// @Tags content
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=[]dto.ThemeResponse}
// @Router /api/v1/themes [get]
func (h *ContentHandler) GetThemes(c *fiber.Ctx) error {
	resp, err := h.contentSvc.GetThemes()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary List quizzes
// @Description Return active quizzes, optionally filtered by theme
// @Tags content
// @Accept json
// @Produce json
// @Param theme_id query string false "Theme ID filter"
// @Success 200 {object} shared.Response{data=dto.QuizListResponse}
// @Router /api/v1/quizzes [get]
func (h *ContentHandler) GetQuizzes(c *fiber.Ctx) error {
	themeID := c.Query("theme_id")

	resp, err := h.contentSvc.GetQuizzes(themeID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get one quiz
// @Description Return a quiz with its questions. Choice correctness is never included.
// @Tags content
// @Accept json
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} shared.Response{data=dto.QuizResponse}
// @Router /api/v1/quizzes/{quizId} [get]
func (h *ContentHandler) GetQuiz(c *fiber.Ctx) error {
	quizID := c.Params("quizId")

	resp, err := h.contentSvc.GetQuiz(quizID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
