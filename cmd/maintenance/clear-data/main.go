package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/dukemzone/kpi-portal/internal/config"
	"github.com/dukemzone/kpi-portal/internal/database"
)

func main() {
	var (
		dbURLFlag string
		keepAudit bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "Database URL (overrides DATABASE_URL)")
	flag.BoolVar(&keepAudit, "keep-audit", false, "Leave the audit log untouched")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	fmt.Println("Connected to database. Clearing portal data...")

	removed, err := database.NewCollectionRepository(db).Clear(ctx)
	if err != nil {
		log.Fatalf("failed to clear collections: %v", err)
	}
	fmt.Printf("  portal_collections: %d rows removed\n", removed)

	if !keepAudit {
		removed, err = database.NewAuditRepository(db).Clear(ctx)
		if err != nil {
			log.Fatalf("failed to clear audit log: %v", err)
		}
		fmt.Printf("  audit_logs: %d rows removed\n", removed)
	}

	fmt.Println("Done. The next server start seeds the default accounts.")
}
