package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/shared"
)

type QuizHandler struct {
	sessionSvc SessionServiceInterface
}

func NewQuizHandler(sessionSvc SessionServiceInterface) *QuizHandler {
	return &QuizHandler{
		sessionSvc: sessionSvc,
	}
}

// @Summary Start a quiz session
// @Description Open, resume or restart the session for this quiz. Fails when the lives pool is empty.
// @Tags quiz
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} shared.Response{data=dto.StartQuizResponse}
// @Router /api/v1/quizzes/{quizId}/start [post]
func (h *QuizHandler) StartQuiz(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	quizID := c.Params("quizId")

	resp, err := h.sessionSvc.StartQuiz(userID, quizID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Quiz session started", resp)
}

// @Summary Submit an answer
// @Description Apply one answer to the in-progress session. A wrong answer consumes a life.
// @Tags quiz
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param quizId path string true "Quiz ID"
// @Param answerRequest body dto.SubmitAnswerRequest true "Chosen answer index"
// @Success 200 {object} shared.Response{data=dto.SubmitAnswerResponse}
// @Router /api/v1/quizzes/{quizId}/answer [post]
func (h *QuizHandler) SubmitAnswer(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	quizID := c.Params("quizId")

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.sessionSvc.SubmitAnswer(userID, quizID, *req.ChoiceIndex)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Answer recorded", resp)
}
