// model/quest.go
package model

import (
	"encoding/json"
	"time"
)

// CriteriaType enumerates the quest goal kinds. Evaluation switches over
// these exhaustively; an unknown type is an error, not a silent zero.
type CriteriaType string

const (
	CriteriaXP                CriteriaType = "xp"
	CriteriaQuizCompleted     CriteriaType = "quiz_completed"
	CriteriaQuestionsAnswered CriteriaType = "questions_answered"
	CriteriaBadgeUnlocked     CriteriaType = "badge_unlocked"
	CriteriaQuizResumed       CriteriaType = "lesson_resumed"
	CriteriaScoreThreshold    CriteriaType = "score_threshold"
	CriteriaCorrectStreak     CriteriaType = "correct_streak"
	CriteriaErrorQuiz         CriteriaType = "error_quiz"
)

// Quest is a static catalog goal with a numeric target and an optional XP
// reward credited on completion.
type Quest struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	Title          string          `json:"title" gorm:"not null"`
	Description    string          `json:"description" gorm:"type:text"`
	Icon           string          `json:"icon"`
	CriteriaType   CriteriaType    `json:"criteria_type" gorm:"not null"`
	CriteriaValue  int             `json:"criteria_value" gorm:"not null"`
	AdditionalData json.RawMessage `json:"additional_data" gorm:"type:jsonb"`
	RewardXP       int             `json:"reward_xp" gorm:"default:0"`
	IsActive       bool            `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ScoreThresholdData is the AdditionalData payload for score_threshold
// quests.
type ScoreThresholdData struct {
	MinScore int `json:"min_score"`
}

func (q *Quest) ParseScoreThreshold() (ScoreThresholdData, error) {
	var data ScoreThresholdData
	if len(q.AdditionalData) == 0 {
		return data, nil
	}
	err := json.Unmarshal(q.AdditionalData, &data)
	return data, err
}

// QuestProgress caches the last evaluated progress for one (user, quest).
// While incomplete it is recomputed from aggregated stats on every trigger;
// IsCompleted is a one-way latch and never reverts even if the underlying
// stats later regress.
type QuestProgress struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"user_id" gorm:"not null;uniqueIndex:idx_user_quest"`
	QuestID     string     `json:"quest_id" gorm:"not null;uniqueIndex:idx_user_quest"`
	Progress    int        `json:"progress" gorm:"default:0"`
	IsCompleted bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
