package seeders

import (
	"encoding/json"
	"log"
	"time"

	"github.com/djimmy2web/certifdiag_api/model"

	"gorm.io/gorm"
)

// QuestSeeder handles seeding the quest catalog
type QuestSeeder struct {
	db *gorm.DB
}

// NewQuestSeeder creates a new quest seeder
func NewQuestSeeder(db *gorm.DB) *QuestSeeder {
	return &QuestSeeder{db: db}
}

// SeedQuests seeds the database with the daily quest pool
func (s *QuestSeeder) SeedQuests() error {
	quests := s.getQuests()

	for _, quest := range quests {
		var existing model.Quest
		if err := s.db.Where("id = ?", quest.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&quest).Error; err != nil {
					log.Printf("Error creating quest %s: %v", quest.Title, err)
					return err
				}
				log.Printf("Created quest: %s", quest.Title)
			} else {
				log.Printf("Error checking quest %s: %v", quest.Title, err)
				return err
			}
		} else {
			log.Printf("Quest %s already exists, skipping", quest.Title)
		}
	}

	log.Println("Quest seeding completed successfully")
	return nil
}

func scoreThresholdJSON(minScore int) json.RawMessage {
	data, err := json.Marshal(model.ScoreThresholdData{MinScore: minScore})
	if err != nil {
		log.Fatalf("Failed to marshal score threshold: %v", err)
	}
	return data
}

func (s *QuestSeeder) getQuests() []model.Quest {
	now := time.Now()

	return []model.Quest{
		{
			ID:            "quest_first_steps",
			Title:         "First Steps",
			Description:   "Complete 1 quiz.",
			Icon:          "flag",
			CriteriaType:  model.CriteriaQuizCompleted,
			CriteriaValue: 1,
			RewardXP:      50,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "quest_quiz_marathon",
			Title:         "Quiz Marathon",
			Description:   "Complete 5 quizzes.",
			Icon:          "run",
			CriteriaType:  model.CriteriaQuizCompleted,
			CriteriaValue: 5,
			RewardXP:      200,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "quest_curious_mind",
			Title:         "Curious Mind",
			Description:   "Answer 25 questions.",
			Icon:          "book",
			CriteriaType:  model.CriteriaQuestionsAnswered,
			CriteriaValue: 25,
			RewardXP:      100,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "quest_point_collector",
			Title:         "Point Collector",
			Description:   "Reach 500 XP.",
			Icon:          "star",
			CriteriaType:  model.CriteriaXP,
			CriteriaValue: 500,
			RewardXP:      150,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "quest_badge_hunter",
			Title:         "Badge Hunter",
			Description:   "Unlock 3 badges.",
			Icon:          "shield",
			CriteriaType:  model.CriteriaBadgeUnlocked,
			CriteriaValue: 3,
			RewardXP:      150,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "quest_comeback",
			Title:         "Comeback",
			Description:   "Resume an unfinished quiz 3 times.",
			Icon:          "refresh",
			CriteriaType:  model.CriteriaQuizResumed,
			CriteriaValue: 3,
			RewardXP:      75,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:             "quest_high_scorer",
			Title:          "High Scorer",
			Description:    "Finish 3 quizzes with at least 80% correct.",
			Icon:           "target",
			CriteriaType:   model.CriteriaScoreThreshold,
			CriteriaValue:  3,
			AdditionalData: scoreThresholdJSON(80),
			RewardXP:       250,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:            "quest_on_a_roll",
			Title:         "On a Roll",
			Description:   "Reach a streak of 10 correct answers.",
			Icon:          "fire",
			CriteriaType:  model.CriteriaCorrectStreak,
			CriteriaValue: 10,
			RewardXP:      200,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}
