package seeders

import (
	"log"
	"time"

	"github.com/djimmy2web/certifdiag_api/model"

	"gorm.io/gorm"
)

// ThemeSeeder handles seeding quiz themes
type ThemeSeeder struct {
	db *gorm.DB
}

// NewThemeSeeder creates a new theme seeder
func NewThemeSeeder(db *gorm.DB) *ThemeSeeder {
	return &ThemeSeeder{db: db}
}

// SeedThemes seeds the database with the base quiz themes
func (s *ThemeSeeder) SeedThemes() error {
	themes := s.getThemes()

	for _, theme := range themes {
		var existing model.Theme
		if err := s.db.Where("id = ?", theme.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&theme).Error; err != nil {
					log.Printf("Error creating theme %s: %v", theme.Name, err)
					return err
				}
				log.Printf("Created theme: %s", theme.Name)
			} else {
				log.Printf("Error checking theme %s: %v", theme.Name, err)
				return err
			}
		} else {
			log.Printf("Theme %s already exists, skipping", theme.Name)
		}
	}

	log.Println("Theme seeding completed successfully")
	return nil
}

func (s *ThemeSeeder) getThemes() []model.Theme {
	now := time.Now()

	return []model.Theme{
		{
			ID:          "theme_networking",
			Name:        "Networking",
			Description: "IP addressing, routing, DNS and transport protocols.",
			IconURL:     "/assets/themes/networking.svg",
			Order:       1,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "theme_web",
			Name:        "Web Development",
			Description: "HTTP, browsers, APIs and the modern web stack.",
			IconURL:     "/assets/themes/web.svg",
			Order:       2,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "theme_security",
			Name:        "Security",
			Description: "Authentication, cryptography basics and common attack classes.",
			IconURL:     "/assets/themes/security.svg",
			Order:       3,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "theme_cloud",
			Name:        "Cloud & DevOps",
			Description: "Containers, CI/CD and cloud service models.",
			IconURL:     "/assets/themes/cloud.svg",
			Order:       4,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}
