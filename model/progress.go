// model/progress.go
package model

import (
	"encoding/json"
	"time"
)

// UserProgress carries the per-user resource and scoring state: the lives
// pool, the cumulative XP total the weekly ranking job reads, the running
// correct-answer streak, and the resume-event counter quests evaluate.
// Invariant: 0 <= Lives <= MaxLives.
type UserProgress struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	UserID           string    `json:"user_id" gorm:"uniqueIndex;not null"`
	Lives            int       `json:"lives" gorm:"default:5"`
	MaxLives         int       `json:"max_lives" gorm:"default:5"`
	RegenRateHours   int       `json:"regen_rate_hours" gorm:"default:4"`
	LastRegeneration time.Time `json:"last_regeneration"`
	XP               int       `json:"xp" gorm:"default:0"`
	CurrentStreak    int       `json:"current_streak" gorm:"default:0"`
	BestStreak       int       `json:"best_streak" gorm:"default:0"`
	ResumeCount      int       `json:"resume_count" gorm:"default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// QuizProgress is the session state machine record, one per (user, quiz).
// Answers holds the ordered answer log; its length always equals
// CurrentQuestionIndex. Version backs the optimistic concurrency check on
// every answer write. Terminal records are reset in place on restart, never
// deleted.
type QuizProgress struct {
	ID                   string          `json:"id" gorm:"primaryKey"`
	UserID               string          `json:"user_id" gorm:"not null;uniqueIndex:idx_user_quiz"`
	QuizID               string          `json:"quiz_id" gorm:"not null;uniqueIndex:idx_user_quiz"`
	CurrentQuestionIndex int             `json:"current_question_index" gorm:"default:0"`
	Answers              json.RawMessage `json:"answers" gorm:"type:jsonb"`
	IsCompleted          bool            `json:"is_completed" gorm:"default:false"`
	IsFailed             bool            `json:"is_failed" gorm:"default:false"`
	Version              int             `json:"version" gorm:"default:0"`
	StartedAt            time.Time       `json:"started_at"`
	CompletedAt          *time.Time      `json:"completed_at"`
	LastActivityAt       time.Time       `json:"last_activity_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (p *QuizProgress) IsTerminal() bool {
	return p.IsCompleted || p.IsFailed
}

// AnswerRecord is one entry of QuizProgress.Answers.
type AnswerRecord struct {
	QuestionIndex int       `json:"question_index"`
	ChoiceIndex   int       `json:"choice_index"`
	IsCorrect     bool      `json:"is_correct"`
	AnsweredAt    time.Time `json:"answered_at"`
}

func (p *QuizProgress) ParseAnswers() ([]AnswerRecord, error) {
	var answers []AnswerRecord
	if len(p.Answers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(p.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// Attempt is the immutable audit record written once per completed session.
// Failed sessions never produce one.
type Attempt struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	UserID         string          `json:"user_id" gorm:"not null;index"`
	QuizID         string          `json:"quiz_id" gorm:"not null;index"`
	Score          int             `json:"score" gorm:"not null"`
	TotalQuestions int             `json:"total_questions" gorm:"not null"`
	AnswerCount    int             `json:"answer_count" gorm:"not null"`
	Answers        json.RawMessage `json:"answers" gorm:"type:jsonb"`
	CreatedAt      time.Time       `json:"created_at"`
}
