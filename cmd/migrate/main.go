package main

import (
	"fmt"
	"log"
	"os"

	"github.com/internmatch/internmatch/internal/database"

	"github.com/joho/godotenv"
)

// Operational companion to the server binary: the server applies pending
// migrations on boot, this tool applies, rolls back, or inspects them by
// hand.
func main() {
	godotenv.Load()

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s up|down|version\n", os.Args[0])
		os.Exit(1)
	}

	required := []string{"DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_HOST", "DATABASE_PORT", "DATABASE_NAME", "DATABASE_SSL_MODE"}
	for _, name := range required {
		if os.Getenv(name) == "" {
			fmt.Fprintf(os.Stderr, "%s cannot be empty\n", name)
			os.Exit(1)
		}
	}

	conn, err := database.GetDbConn(
		os.Getenv("DATABASE_USER"),
		os.Getenv("DATABASE_PASSWORD"),
		os.Getenv("DATABASE_HOST"),
		os.Getenv("DATABASE_PORT"),
		os.Getenv("DATABASE_NAME"),
		os.Getenv("DATABASE_SSL_MODE"),
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)

	switch os.Args[1] {
	case "up":
		if err := database.MigrateUp(conn); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := database.MigrateDown(conn); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Println("rolled back one migration")
	case "version":
		version, dirty, err := database.MigrationVersion(conn)
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		log.Printf("schema version %d dirty=%v", version, dirty)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s up|down|version\n", os.Args[0])
		os.Exit(1)
	}
}
