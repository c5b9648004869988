package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/futurumpress/newsgen/internal/app"
	"github.com/futurumpress/newsgen/internal/config"
	"github.com/futurumpress/newsgen/internal/logger"
	"github.com/futurumpress/newsgen/internal/metrics"
)

func main() {
	n := flag.Int("n", 0, "number of articles to generate (1..5, default 3)")
	topic := flag.String("topic", "", "generate a single article on this topic")
	lastK := flag.Int("last-k", 0, "how many recent articles feed the context")
	halfLife := flag.Int("half-life", 0, "recency half-life in positions")
	ctxMax := flag.Int("ctx-max-chars", 0, "character budget for the history digest")
	doImport := flag.Bool("import", false, "upsert the generated batch into the database")
	flag.Parse()

	logger.Init()

	// Check if we should start HTTP server for monitoring
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	res, err := app.Run(context.Background(), cfg, app.Options{
		N:           *n,
		Topic:       *topic,
		LastK:       *lastK,
		HalfLife:    *halfLife,
		CtxMaxChars: *ctxMax,
		DoImport:    *doImport,
	})
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	logger.Info("done",
		"topics", len(res.Topics),
		"articles", len(res.Articles),
		"failed", len(res.Failed),
		"imported", res.Imported)
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
