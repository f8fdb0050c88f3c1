package main

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"fmt"
	"log"
)

// Seeds the fixed category and location enumerations served by the
// /categories and /locations endpoints.

var categories = map[string][]string{
	"restaurant": {"indonesian", "japanese", "korean", "western", "cafe", "street_food", "dessert", "bakery"},
	"spot":       {"karaoke", "billiard", "arcade", "park", "bar", "live_music", "cinema", "thrift"},
	"catalog":    {"food", "drink", "snack", "dessert"},
}

var locations = map[string][]string{
	"restaurant": {"blok_m_square", "melawai", "gulai_tikungan", "little_tokyo", "barito", "mahakam"},
	"spot":       {"blok_m_square", "melawai", "little_tokyo", "barito", "mahakam", "taman_literasi"},
}

func main() {
	storage.InitializeDB()

	for kind, names := range categories {
		for i, name := range names {
			var existing models.Category
			res := storage.DB.Where("kind = ? AND name = ?", kind, name).Limit(1).Find(&existing)
			if res.Error != nil {
				log.Fatalf("Error seeding categories: %v", res.Error)
			}
			if res.RowsAffected > 0 {
				continue
			}
			entry := models.Category{Kind: kind, Name: name, SortOrder: i, IsActive: true}
			if err := storage.DB.Create(&entry).Error; err != nil {
				log.Fatalf("Error seeding categories: %v", err)
			}
		}
	}

	for kind, names := range locations {
		for i, name := range names {
			var existing models.Location
			res := storage.DB.Where("kind = ? AND name = ?", kind, name).Limit(1).Find(&existing)
			if res.Error != nil {
				log.Fatalf("Error seeding locations: %v", res.Error)
			}
			if res.RowsAffected > 0 {
				continue
			}
			entry := models.Location{Kind: kind, Name: name, SortOrder: i, IsActive: true}
			if err := storage.DB.Create(&entry).Error; err != nil {
				log.Fatalf("Error seeding locations: %v", err)
			}
		}
	}

	fmt.Println("Taxonomy seeding completed successfully!")
}
