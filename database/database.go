package database

import (
	"fmt"
	"log"

	"cryptoscope-api/internal/domain/billing"
	"cryptoscope-api/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(dsn string) {
	if dsn == "" {
		log.Fatal("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		&users.User{},
		&billing.Subscription{},
		&billing.CryptoPayment{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}
