// Command migrate manages the kv_slots schema of the SQL storage backends
// and can list the slots a database holds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/jscorp/hostpanel/internal/db"
)

const usage = `Usage: migrate [-type sqlite|postgres] [-dsn path] <command>

Commands:
  up       Apply all pending migrations
  down     Roll back the most recent migration
  version  Show current migration version
  force N  Force migration version to N
  slots    List the stored slot keys`

func main() {
	dbType := flag.String("type", envOr("HOSTPANEL_STORAGE", "sqlite"), "Database type: sqlite or postgres")
	dsn := flag.String("dsn", envOr("HOSTPANEL_DB_DSN", envOr("HOSTPANEL_DB", "hostpanel.db")),
		"Database DSN (file path for sqlite, connection string for postgres)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := flag.Arg(0)
	if command == "slots" {
		listSlots(*dbType, *dsn)
		return
	}

	m, err := db.NewMigrator(*dbType, *dsn)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		fmt.Println("Migrations applied successfully")

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		fmt.Println("Rolled back one migration")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		dirtyStr := ""
		if dirty {
			dirtyStr = " (dirty)"
		}
		fmt.Printf("Version: %d%s\n", version, dirtyStr)

	case "force":
		if flag.NArg() < 2 {
			log.Fatal("force requires a version number: migrate force N")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			log.Fatalf("Invalid version number: %v", err)
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("Force failed: %v", err)
		}
		fmt.Printf("Forced version to %d\n", version)

	default:
		fmt.Printf("Unknown command: %s\n\n%s\n", command, usage)
		os.Exit(1)
	}
}

func listSlots(dbType, dsn string) {
	database, err := db.OpenDB(dbType, dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	keys, err := database.Keys(context.Background())
	if err != nil {
		log.Fatalf("Failed to list slots: %v", err)
	}
	for _, k := range keys {
		fmt.Println(k)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
