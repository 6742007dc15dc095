package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// 1. Themes first (quizzes reference them)
	themeSeeder := NewThemeSeeder(s.db)
	if err := themeSeeder.SeedThemes(); err != nil {
		log.Printf("Theme seeding failed: %v", err)
		return err
	}

	// 2. Quizzes (depend on themes)
	quizSeeder := NewQuizSeeder(s.db)
	if err := quizSeeder.SeedQuizzes(); err != nil {
		log.Printf("Quiz seeding failed: %v", err)
		return err
	}

	// 3. Badges (some reference quizzes)
	badgeSeeder := NewBadgeSeeder(s.db)
	if err := badgeSeeder.SeedBadges(); err != nil {
		log.Printf("Badge seeding failed: %v", err)
		return err
	}

	// 4. Quests (no dependencies)
	questSeeder := NewQuestSeeder(s.db)
	if err := questSeeder.SeedQuests(); err != nil {
		log.Printf("Quest seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedCatalogOnly seeds themes and quizzes
func (s *MainSeeder) SeedCatalogOnly() error {
	themeSeeder := NewThemeSeeder(s.db)
	if err := themeSeeder.SeedThemes(); err != nil {
		return err
	}

	quizSeeder := NewQuizSeeder(s.db)
	return quizSeeder.SeedQuizzes()
}

// SeedQuestsOnly seeds the quest catalog
func (s *MainSeeder) SeedQuestsOnly() error {
	questSeeder := NewQuestSeeder(s.db)
	return questSeeder.SeedQuests()
}

// SeedBadgesOnly seeds the badge catalog
func (s *MainSeeder) SeedBadgesOnly() error {
	badgeSeeder := NewBadgeSeeder(s.db)
	return badgeSeeder.SeedBadges()
}
