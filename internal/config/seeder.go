package config

import (
	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedDatabase populates an empty development database with sample data.
// It is a no-op when books already exist.
func SeedDatabase(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Book{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	books := []models.Book{
		{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", ISBN: "9780135957059", Genre: "technology", Copies: 4, AvailableCopies: 4},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "9781449373320", Genre: "technology", Copies: 3, AvailableCopies: 3},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: "9780441478125", Genre: "fiction", Copies: 2, AvailableCopies: 2},
		{Title: "Thinking, Fast and Slow", Author: "Daniel Kahneman", ISBN: "9780374533557", Genre: "psychology", Copies: 5, AvailableCopies: 5},
	}
	if err := db.Create(&books).Error; err != nil {
		return err
	}

	users := []models.User{
		{Name: "Asha Patel", Email: "asha.patel@example.edu", Role: models.RoleStudent},
		{Name: "Miguel Torres", Email: "miguel.torres@example.edu", Role: models.RoleStudent},
		{Name: "Dana Whitfield", Email: "dana.whitfield@example.edu", Role: models.RoleFaculty},
	}
	return db.Create(&users).Error
}
