package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Database connection
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_SSLMODE"),
		os.Getenv("DB_TIMEZONE"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Check core tables exist
	tables := []string{
		"users", "organizations", "org_members", "roles", "role_permissions",
		"meetings", "agenda_items", "minutes", "tasks", "task_comments",
		"documents", "document_shares", "share_access_logs", "notifications",
		"background_checks", "research_records", "feedbacks",
	}

	for _, table := range tables {
		var exists bool
		query := `
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.tables
				WHERE table_name = ?
			)
		`
		if err := db.Raw(query, table).Scan(&exists).Error; err != nil {
			log.Fatalf("Failed to check table %s: %v", table, err)
		}

		status := "✅"
		if !exists {
			status = "❌"
		}
		fmt.Printf("%s %s\n", status, table)
	}
	fmt.Println()

	// Row counts for the main workflow tables
	for _, table := range []string{"organizations", "meetings", "minutes", "documents", "document_shares"} {
		var count int64
		if err := db.Table(table).Count(&count).Error; err != nil {
			continue
		}
		fmt.Printf("📊 %s: %d rows\n", table, count)
	}

	// Gapless sort_order check per meeting
	var broken int64
	db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT meeting_id
			FROM agenda_items
			GROUP BY meeting_id
			HAVING MAX(sort_order) != COUNT(*) OR MIN(sort_order) != 1
		) AS bad
	`).Scan(&broken)
	if broken > 0 {
		fmt.Printf("⚠️ %d meetings have non-gapless agenda sort order\n", broken)
	} else {
		fmt.Println("✅ Agenda sort order is gapless for all meetings")
	}
}
