package seeders

import (
	"log"
	"time"

	"github.com/djimmy2web/certifdiag_api/model"

	"gorm.io/gorm"
)

// BadgeSeeder handles seeding the badge catalog
type BadgeSeeder struct {
	db *gorm.DB
}

// NewBadgeSeeder creates a new badge seeder
func NewBadgeSeeder(db *gorm.DB) *BadgeSeeder {
	return &BadgeSeeder{db: db}
}

// SeedBadges seeds the database with the award rules
func (s *BadgeSeeder) SeedBadges() error {
	badges := s.getBadges()

	for _, badge := range badges {
		var existing model.Badge
		if err := s.db.Where("id = ?", badge.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&badge).Error; err != nil {
					log.Printf("Error creating badge %s: %v", badge.Name, err)
					return err
				}
				log.Printf("Created badge: %s", badge.Name)
			} else {
				log.Printf("Error checking badge %s: %v", badge.Name, err)
				return err
			}
		} else {
			log.Printf("Badge %s already exists, skipping", badge.Name)
		}
	}

	log.Println("Badge seeding completed successfully")
	return nil
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func (s *BadgeSeeder) getBadges() []model.Badge {
	now := time.Now()

	return []model.Badge{
		{
			ID:          "badge_first_finish",
			Name:        "First Finish",
			Description: "Complete any quiz.",
			IconURL:     "/assets/badges/first_finish.svg",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "badge_network_graduate",
			Name:        "Network Graduate",
			Description: "Finish Networking Basics with at least 4 correct answers.",
			IconURL:     "/assets/badges/network_graduate.svg",
			MinScore:    intPtr(4),
			QuizID:      strPtr("quiz_networking_basics"),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "badge_security_minded",
			Name:        "Security Minded",
			Description: "Finish Security Essentials without a single mistake.",
			IconURL:     "/assets/badges/security_minded.svg",
			MinScore:    intPtr(3),
			QuizID:      strPtr("quiz_security_essentials"),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "badge_sharp_shooter",
			Name:        "Sharp Shooter",
			Description: "Score at least 3 in any quiz.",
			IconURL:     "/assets/badges/sharp_shooter.svg",
			MinScore:    intPtr(3),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}
