package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/djimmy2web/certifdiag_api/dto"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	RequiredAuth() fiber.Handler
}

type JWTServiceInterface interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}

type SessionServiceInterface interface {
	StartQuiz(userID, quizID string) (*dto.StartQuizResponse, error)
	SubmitAnswer(userID, quizID string, choiceIndex int) (*dto.SubmitAnswerResponse, error)
}

type LivesServiceInterface interface {
	GetLives(userID string) (*dto.LivesResponse, error)
	ConsumeLife(userID string) (*dto.LivesResponse, error)
}

type QuestServiceInterface interface {
	GetDailyQuests(userID string) (*dto.DailyQuestsResponse, error)
}

type ContentServiceInterface interface {
	GetThemes() ([]dto.ThemeResponse, error)
	GetQuizzes(themeID string) (*dto.QuizListResponse, error)
	GetQuiz(quizID string) (*dto.QuizResponse, error)
}

type LeaderboardServiceInterface interface {
	GetLeaderboard(limit int) (*dto.LeaderboardResponse, error)
}
