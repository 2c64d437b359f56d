package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ppe-watch/compliance/internal/api"
	"github.com/ppe-watch/compliance/internal/compliance"
	"github.com/ppe-watch/compliance/internal/config"
	"github.com/ppe-watch/compliance/internal/db"
	"github.com/ppe-watch/compliance/internal/events"
	"github.com/ppe-watch/compliance/internal/fsutil"
	"github.com/ppe-watch/compliance/internal/notify"
	"github.com/ppe-watch/compliance/internal/pipeline"
	"github.com/ppe-watch/compliance/internal/report"
	"github.com/ppe-watch/compliance/internal/security"
	"github.com/ppe-watch/compliance/internal/track"
	"github.com/ppe-watch/compliance/internal/zones"
)

// runSession processes one detection stream end to end and prints the
// session statistics as JSON.
func runSession(ctx context.Context, tuning *config.TuningConfig, zoneConfig zones.Config) {
	loc := tuning.GetTimezone()

	input := os.Stdin
	if *detections != "-" {
		f, err := os.Open(*detections)
		if err != nil {
			log.Fatalf("Failed to open detections file: %v", err)
		}
		defer f.Close()
		input = f
	}

	start := time.Time{}
	if *sessionAt != "" {
		parsed, err := time.Parse(time.RFC3339, *sessionAt)
		if err != nil {
			log.Fatalf("Invalid -start time: %v", err)
		}
		start = parsed
	}

	writer, err := events.NewWriter(fsutil.OSFileSystem{}, *eventsDir, loc)
	if err != nil {
		log.Fatalf("Failed to create event log writer: %v", err)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	store := track.NewStore(tuning.GetHistoryCapacity(), loc)
	resolver := compliance.NewResolver(store, zoneConfig.ForCamera(*cameraID), tuning)
	emitter := compliance.NewEmitter(store, writer, *cameraID)

	p := pipeline.NewPipeline(*cameraID, resolver, emitter, database, loc, tuning.GetFrameRate(), start)
	stats, err := p.Process(ctx, input)
	if err != nil {
		log.Fatalf("Session failed: %v", err)
	}

	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
}

// runReport aggregates one day's events, records the run, and prints
// the summary.
func runReport(tuning *config.TuningConfig) {
	loc := tuning.GetTimezone()

	reader := events.NewReader(fsutil.OSFileSystem{}, *eventsDir)
	evs, err := reader.LoadDay(*reportDate)
	if err != nil {
		log.Fatalf("Failed to load events for %s: %v", *reportDate, err)
	}

	agg := report.Aggregate(*reportDate, evs, loc, 0)

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	run := &db.DailyReport{
		ReportDate:      agg.Date,
		Timezone:        loc.String(),
		TotalEvents:     agg.TotalEvents,
		UniquePersons:   agg.UniquePersons,
		UniqueViolators: agg.UniqueViolators,
		ViolationRate:   agg.ViolationRate,
	}
	if err := database.CreateDailyReport(run); err != nil {
		log.Fatalf("Failed to record report run: %v", err)
	}
	log.Printf("Recorded report run %s for %s", run.RunID, agg.Date)

	out, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Println(string(out))

	if *reportOut != "" {
		if err := security.ValidateExportPath(*reportOut); err != nil {
			log.Fatalf("Refusing report output path: %v", err)
		}
		if err := os.WriteFile(*reportOut, out, 0o644); err != nil {
			log.Fatalf("Failed to write report file: %v", err)
		}
		log.Printf("Wrote report to %s", *reportOut)
	}

	if *webhookURL != "" {
		notifier := notify.NewWebhookNotifier(nil, *webhookURL)
		if err := notifier.SendDailySummary(agg); err != nil {
			log.Printf("Webhook delivery failed: %v", err)
		} else {
			log.Printf("Delivered summary to %s", *webhookURL)
		}
	}
}

// runServe runs the HTTP API until the context is cancelled.
func runServe(ctx context.Context, tuning *config.TuningConfig, zoneConfig zones.Config) {
	loc := tuning.GetTimezone()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	reader := events.NewReader(fsutil.OSFileSystem{}, *eventsDir)

	mux := http.NewServeMux()
	database.AttachAdminRoutes(mux)

	apiServer := api.NewServer(database, reader, zoneConfig, loc)
	mux.Handle("/api/", apiServer.ServeMux())

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// runMigrate handles the migrate subcommand.
func runMigrate(args []string, dbPath string) {
	if len(args) < 1 {
		printMigrateHelp()
		os.Exit(1)
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("All migrations applied")

	case "down":
		if err := database.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("Rolled back one migration")

	case "status":
		version, dirty, err := database.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		log.Printf("Schema version %d (dirty=%v)", version, dirty)

	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version %q: %v", args[1], err)
		}
		if err := database.MigrateForce(version); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		log.Printf("Forced schema version to %d", version)

	case "help":
		printMigrateHelp()

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", args[0])
		printMigrateHelp()
		os.Exit(1)
	}
}

func printMigrateHelp() {
	fmt.Println(`Usage: ppe-compliance [flags] migrate <action>

Actions:
  up       Apply all pending migrations
  down     Roll back the most recent migration
  status   Show current schema version
  force    Set the schema version without running migrations
  help     Show this help`)
}
