package services

import (
	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/model"
	"github.com/djimmy2web/certifdiag_api/shared"

	"github.com/alphabatem/common/context"
)

// ContentService exposes the read-only quiz and theme catalog. The engine
// treats it as an external collaborator; nothing here mutates catalog rows.
type ContentService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const CONTENT_SVC = "content_svc"

func (svc ContentService) Id() string {
	return CONTENT_SVC
}

func (svc *ContentService) Configure(ctx *context.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *ContentService) Start() error {
	return nil
}

func (svc *ContentService) GetThemes() ([]dto.ThemeResponse, error) {
	themes, err := svc.sqlSvc.GetActiveThemes()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load themes")
	}

	responses := make([]dto.ThemeResponse, 0, len(themes))
	for _, theme := range themes {
		quizzes, err := svc.sqlSvc.GetActiveQuizzes(theme.ID)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to load themes")
		}
		responses = append(responses, dto.ThemeResponse{
			ID:          theme.ID,
			Name:        theme.Name,
			Description: theme.Description,
			IconURL:     theme.IconURL,
			Order:       theme.Order,
			QuizCount:   len(quizzes),
		})
	}
	return responses, nil
}

func quizSummary(quiz *model.Quiz) (dto.QuizSummaryResponse, error) {
	questions, err := quiz.ParseQuestions()
	if err != nil {
		return dto.QuizSummaryResponse{}, err
	}
	return dto.QuizSummaryResponse{
		ID:            quiz.ID,
		ThemeID:       quiz.ThemeID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		Level:         quiz.Level,
		QuestionCount: len(questions),
	}, nil
}

// GetQuizzes lists active quizzes, optionally filtered by theme.
func (svc *ContentService) GetQuizzes(themeID string) (*dto.QuizListResponse, error) {
	quizzes, err := svc.sqlSvc.GetActiveQuizzes(themeID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load quizzes")
	}

	summaries := make([]dto.QuizSummaryResponse, 0, len(quizzes))
	for i := range quizzes {
		summary, err := quizSummary(&quizzes[i])
		if err != nil {
			return nil, shared.NewInternalError(err, "Quiz catalog entry is corrupted")
		}
		summaries = append(summaries, summary)
	}

	return &dto.QuizListResponse{
		Quizzes: summaries,
		Total:   len(summaries),
	}, nil
}

// GetQuiz returns one quiz with its questions mapped through the session
// DTOs, so choice correctness is stripped.
func (svc *ContentService) GetQuiz(quizID string) (*dto.QuizResponse, error) {
	quiz, err := svc.sqlSvc.GetQuiz(quizID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "Quiz not found")
	}

	questions, err := quiz.ParseQuestions()
	if err != nil {
		return nil, shared.NewInternalError(err, "Quiz catalog entry is corrupted")
	}

	responses := make([]dto.QuestionResponse, len(questions))
	for i := range questions {
		responses[i] = toQuestionResponse(i, &questions[i])
	}

	return &dto.QuizResponse{
		ID:            quiz.ID,
		ThemeID:       quiz.ThemeID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		Level:         quiz.Level,
		QuestionCount: len(questions),
		Questions:     responses,
	}, nil
}
