package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/guessword_api/seed/seeders"
	"github.com/lac-hong-legacy/guessword_api/services/repositories"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "sessions", "Type of seeding: sessions, operator")
		count    = flag.Int("count", 20, "Number of demo sessions")
		word     = flag.String("word", "", "Hidden word stored with demo sessions (overrides GAME_WORD)")
		dbPath   = flag.String("db", "", "Seed a sqlite database instead of the CSV tables")
		password = flag.String("password", "", "Operator password to hash")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	switch *seedType {
	case "sessions":
		store, err := openStore(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open record store: %v", err)
		}
		defer store.Close()

		hidden := *word
		if hidden == "" {
			hidden = os.Getenv("GAME_WORD")
		}
		if hidden == "" {
			log.Fatal("A hidden word is required: set GAME_WORD or pass -word")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		mainSeeder := seeders.NewMainSeeder(store, uint64(time.Now().UnixNano()))
		if err := mainSeeder.SeedSessions(ctx, *count, hidden); err != nil {
			log.Fatalf("Failed to seed sessions: %v", err)
		}
	case "operator":
		hash, err := seeders.OperatorHash(*password)
		if err != nil {
			log.Fatalf("Failed to hash operator password: %v", err)
		}
		fmt.Printf("OPERATOR_PASSWORD_HASH='%s'\n", hash)
		return
	default:
		log.Fatalf("Unknown seed type: %s. Use 'sessions' or 'operator'", *seedType)
	}

	log.Println("Seeding operation completed successfully!")
}

func openStore(dbPath string) (repositories.RecordStore, error) {
	if dbPath != "" {
		db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		})
		if err != nil {
			return nil, err
		}
		log.Printf("Connected to database: %s", dbPath)
		return repositories.NewGormStore(db)
	}

	sessionsPath := os.Getenv("GAME_OUTPUT")
	if sessionsPath == "" {
		sessionsPath = filepath.Join("data", "resultats.csv")
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	log.Printf("Seeding CSV tables: %s", sessionsPath)
	return repositories.NewCSVStore(sessionsPath, dataDir)
}

func showHelp() {
	log.Println(`
Seeding tool for the word-guessing station

Usage: go run ./seed [flags]

Flags:
  -type string
        sessions (default) or operator
  -count int
        Number of demo sessions (default 20)
  -word string
        Hidden word stored with the demo sessions (default GAME_WORD)
  -db string
        Seed a sqlite database instead of the CSV tables
  -password string
        Operator password to hash with -type=operator
  -help
        Show this help message

Examples:
  go run ./seed -type=sessions -count=40
  go run ./seed -type=operator -password='correct horse battery'

Environment Variables:
  GAME_OUTPUT - sessions table (default: data/resultats.csv)
  DATA_DIR    - distribution tables directory (default: data)
`)
}
