// model/content.go
package model

import (
	"encoding/json"
	"time"
)

// Theme groups quizzes in the catalog. Read-only for the engine.
type Theme struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	IconURL     string    `json:"icon_url"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Quiz is a catalog entry. Questions are stored as a JSON array in document
// order; the session engine addresses them by index.
type Quiz struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	ThemeID     string          `json:"theme_id" gorm:"index"`
	Title       string          `json:"title" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text"`
	Level       string          `json:"level"`
	Questions   json.RawMessage `json:"questions" gorm:"type:jsonb"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Theme Theme `json:"theme" gorm:"foreignKey:ThemeID"`
}

// Question lives inside Quiz.Questions. Choice correctness never leaves the
// server; response mapping strips it.
type Question struct {
	Text        string   `json:"text"`
	Explanation string   `json:"explanation,omitempty"`
	MediaURL    string   `json:"media_url,omitempty"`
	Choices     []Choice `json:"choices"`
}

type Choice struct {
	Text      string `json:"text"`
	MediaURL  string `json:"media_url,omitempty"`
	IsCorrect bool   `json:"is_correct"`
}

// CorrectChoice returns the index of the correct choice, or -1 when the
// catalog entry is malformed.
func (q *Question) CorrectChoice() int {
	for i, c := range q.Choices {
		if c.IsCorrect {
			return i
		}
	}
	return -1
}

// ParseQuestions decodes the quiz question array.
func (q *Quiz) ParseQuestions() ([]Question, error) {
	var questions []Question
	if len(q.Questions) == 0 {
		return questions, nil
	}
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}
