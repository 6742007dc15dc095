// model/badge.go
package model

import "time"

// Badge is a catalog award rule evaluated at quiz completion. MinScore and
// QuizID are both optional filters; a badge with neither matches every
// completed session.
type Badge struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	IconURL     string    `json:"icon_url"`
	MinScore    *int      `json:"min_score"`
	QuizID      *string   `json:"quiz_id"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserBadge is immutable once created; awarding is an idempotent upsert on
// the (user, badge) unique key.
type UserBadge struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_badge"`
	BadgeID    string    `json:"badge_id" gorm:"not null;uniqueIndex:idx_user_badge"`
	UnlockedAt time.Time `json:"unlocked_at"`
	CreatedAt  time.Time `json:"created_at"`

	Badge Badge `json:"badge" gorm:"foreignKey:BadgeID"`
}
