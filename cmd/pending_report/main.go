package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"cardgate_app/internal/repository"
	"cardgate_app/internal/services"
)

func main() {
	olderThanHours := flag.Int("older_than_hours", 24, "Report attempts pending longer than this many hours")
	flag.Parse()

	if *olderThanHours < 0 {
		fmt.Println("Usage: pending_report [-older_than_hours <n>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := services.InitDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}

	attempts := repository.NewGormAttemptRepository(db)
	cutoff := time.Now().Add(-time.Duration(*olderThanHours) * time.Hour)

	pending, err := attempts.FindPending(context.Background(), cutoff)
	if err != nil {
		log.Fatalf("Failed to list pending attempts: %v", err)
	}

	if len(pending) == 0 {
		fmt.Printf("No attempts pending longer than %dh\n", *olderThanHours)
		return
	}

	fmt.Printf("%d attempt(s) pending longer than %dh:\n", len(pending), *olderThanHours)
	for _, attempt := range pending {
		kind := "charge"
		if attempt.Threeds {
			kind = "3ds"
		}
		fmt.Printf("  #%d  %s  customer=%d  %s  opened=%s\n",
			attempt.ID,
			attempt.ConversationID,
			attempt.CustomerID,
			kind,
			attempt.CreatedAt.Format(time.RFC3339),
		)
	}
}
