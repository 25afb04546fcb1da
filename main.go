package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"ConsignmentExtraction/pkg/api"
	"ConsignmentExtraction/pkg/config"
	"ConsignmentExtraction/pkg/database"
	"ConsignmentExtraction/pkg/encoder"
	"ConsignmentExtraction/pkg/extractor"
	"ConsignmentExtraction/pkg/models"
	"ConsignmentExtraction/pkg/render"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.LoadConfig(logger)

	port := flag.StringP("port", "p", cfg.Port, "HTTP listen port")
	primaryPath := flag.String("primary", "", "extract once from this main image and exit")
	secondaryPath := flag.String("secondary", "", "optional S/N GPS image used with --primary")
	apiKey := flag.String("api-key", "", "Google AI API key (defaults to GEMINI_API_KEY)")
	asJSON := flag.Bool("json", false, "print the one-shot result as JSON")
	flag.Parse()

	if *apiKey != "" {
		cfg.GeminiAPIKey = *apiKey
	}

	ext := extractor.New(cfg.NewGenerator(logger), logger)

	if *primaryPath != "" {
		os.Exit(runOnce(ext, cfg, *primaryPath, *secondaryPath, *asJSON))
	}

	var store api.ExtractionStore
	db, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Warn("database.unavailable", "error", err, "note", "finalize endpoints disabled")
	} else {
		defer db.Close()
		store = database.NewStore(db)
	}

	mux := http.NewServeMux()
	api.SetupRoutes(mux, &api.Server{
		Extractor:     ext,
		Store:         store,
		DefaultAPIKey: cfg.GeminiAPIKey,
		MaxImageBytes: cfg.MaxImageBytes,
		Logger:        logger,
	})

	logger.Info("server.start", "port", *port, "transport", cfg.Transport, "model", cfg.GeminiModel, "default_key", cfg.GeminiAPIKey != "")
	if err := http.ListenAndServe(":"+*port, api.WithCORS(mux)); err != nil {
		logger.Error("server.stopped", "error", err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.ConnectDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.InitDB(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// runOnce extracts from local files and prints the result. It returns the process exit code.
func runOnce(ext *extractor.Extractor, cfg *config.Config, primaryPath, secondaryPath string, asJSON bool) int {
	primary, err := encoder.Load(primaryPath, cfg.MaxImageBytes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	session := extractor.Session{APIKey: cfg.GeminiAPIKey, Primary: &primary}
	if secondaryPath != "" {
		secondary, err := encoder.Load(secondaryPath, cfg.MaxImageBytes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		session.Secondary = &secondary
	}

	res, err := ext.Extract(context.Background(), session)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
	} else {
		fmt.Println(render.Text(res))
	}
	if res.Message != "" {
		fmt.Fprintln(os.Stderr, res.Message)
	}

	if res.Outcome == models.HardFailure {
		return 1
	}
	return 0
}
