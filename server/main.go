package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
)

func main() {
	admin, err := getRequiredEnv("LEDGER_ADMIN")
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	port := getEnv("PORT", "8084")
	snapshotPath := os.Getenv("LEDGER_SNAPSHOT_PATH")
	natsURL := os.Getenv("NATS_URL")

	var sink ledger.EventSink
	if natsURL != "" {
		publisher, err := NewEventPublisher(natsURL)
		if err != nil {
			log.Fatalf("ERROR: Failed to connect event publisher: %v", err)
		}
		defer publisher.Close()
		sink = publisher
		log.Printf("INFO: Publishing audit events to NATS at %s", natsURL)
	} else {
		log.Printf("WARNING: NATS_URL not set, audit events will not be published")
	}

	var snapshots *SnapshotFile
	ldg := ledger.New(admin, nil, sink)
	if snapshotPath != "" {
		snapshots = NewSnapshotFile(snapshotPath)
		restored, err := snapshots.Load(sink)
		if err != nil {
			log.Fatalf("ERROR: Failed to load snapshot from %s: %v", snapshotPath, err)
		}
		if restored != nil {
			ldg = restored
			log.Printf("INFO: Restored ledger snapshot from %s (admin %s)", snapshotPath, ldg.Admin())
		} else {
			log.Printf("INFO: No snapshot at %s, starting fresh ledger (admin %s)", snapshotPath, admin)
		}
	}

	srv := NewLedgerServer(ldg, snapshots)

	var handler http.Handler = srv.Router()
	maxWorkers := getEnvInt("LEDGER_MAX_WORKERS", 0)
	if maxWorkers > 0 {
		handler = limitInFlight(handler, maxWorkers)
		log.Printf("INFO: Request pool initialized with %d max concurrent workers", maxWorkers)
	}
	handler = handlers.LoggingHandler(os.Stdout, handler)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("INFO: Auction ledger listening on :%s", port)
	log.Fatal(httpServer.ListenAndServe())
}

// limitInFlight bounds concurrent requests; requests beyond the limit are
// rejected immediately rather than queued.
func limitInFlight(next http.Handler, max int) http.Handler {
	semaphore := make(chan struct{}, max)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			next.ServeHTTP(w, r)
		default:
			log.Printf("INFO: No workers available, rejecting request (pool full)")
			http.Error(w, "server busy", http.StatusServiceUnavailable)
		}
	})
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: Invalid value for %s: %s (using %d)", key, value, fallback)
		return fallback
	}
	return intValue
}
