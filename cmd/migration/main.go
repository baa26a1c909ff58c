package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fadedpez/reverseroulette/internal/config"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/db/migrations"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	// Define command-line flags
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	// Create command options
	migrationsDir := createCmd.String("dir", "pkg/db/migrations/sql", "Directory to store migrations")

	// Migrate command options
	dbPath := migrateCmd.String("db", "", "Path to SQLite database (default: history database from config)")
	migrateDir := migrateCmd.String("dir", "", "Directory containing migrations (default: migrations built into the binary)")

	// Show usage if no arguments provided
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.INFO, true)
	defer logger.Sync()

	// Parse command
	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if createCmd.NArg() < 1 {
			fmt.Println("Error: Missing migration description")
			createCmd.Usage()
			os.Exit(1)
		}
		createNewMigration(*migrationsDir, createCmd.Arg(0), logger)

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		path := *dbPath
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				log.Fatalf("Error loading config: %v", err)
			}
			path = cfg.HistoryDBPath()
		}
		applyMigrations(path, *migrateDir, logger)

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/migration create DESCRIPTION  - Create a new migration")
	fmt.Println("  go run ./cmd/migration migrate             - Apply pending migrations")
	fmt.Println("  go run ./cmd/migration help                - Show this help")
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./cmd/migration create \"add spin counts\"")
	fmt.Println("  go run ./cmd/migration migrate -db data/history.db")
}

func createNewMigration(migrationsDir, description string, logger *logging.Logger) {
	// Create a temporary database connection to use the migrator
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	filePath, err := migrations.NewDirMigrator(db, migrationsDir, logger).CreateMigration(description)
	if err != nil {
		log.Fatalf("Error creating migration: %v", err)
	}

	fmt.Printf("Created migration file: %s\n", filePath)
	fmt.Println("Edit this file to add your database schema changes.")
}

func applyMigrations(dbPath, migrationsDir string, logger *logging.Logger) {
	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db, logger)
	if migrationsDir != "" {
		migrator = migrations.NewDirMigrator(db, migrationsDir, logger)
	}

	count, err := migrator.MigrateUp(context.Background())
	if err != nil {
		log.Fatalf("Error applying migrations: %v", err)
	}

	fmt.Printf("Applied %d migration(s) to %s\n", count, dbPath)
}
