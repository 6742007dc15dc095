package dto

// Theme and quiz catalog DTOs. Question payloads reuse the session DTOs so
// choice correctness is stripped on every path.

type ThemeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	Order       int    `json:"order"`
	QuizCount   int    `json:"quiz_count"`
}

type QuizSummaryResponse struct {
	ID            string `json:"id"`
	ThemeID       string `json:"theme_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Level         string `json:"level"`
	QuestionCount int    `json:"question_count"`
}

type QuizResponse struct {
	ID            string             `json:"id"`
	ThemeID       string             `json:"theme_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Level         string             `json:"level"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions"`
}

type QuizListResponse struct {
	Quizzes []QuizSummaryResponse `json:"quizzes"`
	Total   int                   `json:"total"`
}

type LeaderboardEntryResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Rank     int    `json:"rank"`
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntryResponse `json:"entries"`
	Total   int                        `json:"total"`
}
