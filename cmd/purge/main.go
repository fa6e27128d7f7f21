package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pneumoscan/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/sessions.db", "Database path")
	olderThan := flag.Duration("older-than", 30*time.Minute, "Delete sessions idle for longer than this")
	dryRun := flag.Bool("dry-run", false, "Only report how many sessions are stored")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Fatalf("Database not found: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewSessionRepository(db)

	total, err := repo.Count()
	if err != nil {
		log.Fatalf("Failed to count sessions: %v", err)
	}
	fmt.Printf("📊 Stored sessions: %d\n", total)

	if *dryRun {
		return
	}

	cutoff := time.Now().Add(-*olderThan)
	fmt.Printf("Purging sessions idle since %s\n", cutoff.Format(time.RFC3339))

	removed, err := repo.DeleteExpired(cutoff)
	if err != nil {
		log.Fatalf("Failed to purge sessions: %v", err)
	}

	fmt.Printf("✅ Removed %d session(s), %d remaining\n", len(removed), total-len(removed))
}
