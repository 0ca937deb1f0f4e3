package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fadedpez/pokerscribe/pkg/db/migrations"
)

func main() {
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)

	migrationsDir := createCmd.String("dir", "pkg/db/migrations/sql", "Directory to store migrations")

	dbPath := migrateCmd.String("db", "data/hands.db", "Path to SQLite database")
	migrateDir := migrateCmd.String("dir", "", "Directory containing migrations, defaults to the built-in set")

	statusDB := statusCmd.String("db", "data/hands.db", "Path to SQLite database")
	statusDir := statusCmd.String("dir", "", "Directory containing migrations, defaults to the built-in set")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if createCmd.NArg() < 1 {
			fmt.Println("Error: Missing migration description")
			createCmd.Usage()
			os.Exit(1)
		}
		path, err := migrations.CreateMigration(*migrationsDir, createCmd.Arg(0))
		if err != nil {
			log.Fatalf("Error creating migration: %v", err)
		}
		fmt.Printf("Created migration file: %s\n", path)

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		db := openDatabase(*dbPath)
		defer db.Close()

		if err := migrations.NewMigrator(db, source(*migrateDir)).MigrateUp(); err != nil {
			log.Fatalf("Error applying migrations: %v", err)
		}
		fmt.Println("Migrations applied successfully!")

	case "status":
		statusCmd.Parse(os.Args[2:])
		db := openDatabase(*statusDB)
		defer db.Close()
		printStatus(migrations.NewMigrator(db, source(*statusDir)))

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
	fmt.Println("  migration create DESCRIPTION  - Create a new migration")
	fmt.Println("  migration migrate             - Apply pending migrations")
	fmt.Println("  migration status              - List applied and pending migrations")
	fmt.Println("  migration help                - Show this help")
	fmt.Println("\nExamples:")
	fmt.Println("  migration create \"add session table\"")
	fmt.Println("  migration migrate -db data/hands.db")
}

func source(dir string) fs.FS {
	if dir == "" {
		return migrations.Files()
	}
	return os.DirFS(dir)
}

func openDatabase(path string) *sql.DB {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	return db
}

func printStatus(m *migrations.Migrator) {
	if err := m.Initialize(); err != nil {
		log.Fatalf("Error initializing migrations table: %v", err)
	}
	applied, err := m.GetAppliedMigrations()
	if err != nil {
		log.Fatalf("Error reading applied migrations: %v", err)
	}
	all, err := m.LoadMigrations()
	if err != nil {
		log.Fatalf("Error loading migrations: %v", err)
	}

	for _, migration := range all {
		state := "pending"
		if applied[migration.Version] {
			state = "applied"
		}
		fmt.Printf("  [%s] %s %s\n", state, migration.Version, migration.Description)
	}
}
