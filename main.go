package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/ppe-watch/compliance/internal/config"
	"github.com/ppe-watch/compliance/internal/version"
	"github.com/ppe-watch/compliance/internal/zones"
)

var (
	tuningPath = flag.String("config", "", "Path to tuning config JSON (defaults apply when empty)")
	zonesPath  = flag.String("zones", "zones.json", "Path to zone config JSON")
	cameraID   = flag.String("camera", "cam_1", "Camera ID for this session")
	dbPath     = flag.String("db", "compliance.db", "Path to SQLite database")
	eventsDir  = flag.String("events-dir", "events", "Directory for daily event CSV logs")

	detections = flag.String("process", "", "Process a detection JSONL file ('-' for stdin)")
	sessionAt  = flag.String("start", "", "Session start time, RFC3339 (default: now)")

	reportDate = flag.String("report", "", "Aggregate one day (YYYY-MM-DD) and print the summary")
	reportOut  = flag.String("out", "", "Also write the report JSON to this file")
	webhookURL = flag.String("webhook", "", "POST the daily summary to this URL after a report run")

	listen = flag.String("listen", "", "Serve the HTTP API on this address (e.g. :8080)")
)

func main() {
	flag.Parse()

	// migrate subcommand manages the schema directly and skips the
	// normal startup path.
	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		runMigrate(args[1:], *dbPath)
		return
	}

	log.Printf("ppe-compliance %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	tuning := &config.TuningConfig{}
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *detections != "":
		zoneConfig, err := zones.LoadConfig(*zonesPath)
		if err != nil {
			log.Fatalf("Failed to load zone config: %v", err)
		}
		runSession(ctx, tuning, zoneConfig)

	case *reportDate != "":
		runReport(tuning)

	case *listen != "":
		zoneConfig, err := zones.LoadConfig(*zonesPath)
		if err != nil {
			log.Fatalf("Failed to load zone config: %v", err)
		}
		runServe(ctx, tuning, zoneConfig)

	default:
		log.Fatal("Nothing to do: pass -process, -report, -listen, or the migrate subcommand")
	}
}
