package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/pagewarden/pagewarden/pkg/config"
	"github.com/pagewarden/pagewarden/pkg/detect"
	"github.com/pagewarden/pagewarden/pkg/extract"
	"github.com/pagewarden/pagewarden/pkg/history"
	"github.com/pagewarden/pagewarden/pkg/logutil"
	"github.com/pagewarden/pagewarden/pkg/metrics"
	"github.com/pagewarden/pagewarden/pkg/scan"
	"github.com/pagewarden/pagewarden/pkg/semantic"
	"github.com/pagewarden/pagewarden/pkg/session"
	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

const Version = "0.1.0"

const pageLoadTimeout = 20 * time.Second

func main() {
	logger := logutil.NewLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServer(logger)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: pagewarden scan <url>")
			os.Exit(1)
		}
		runCLIScan(logger, os.Args[2])
	case "version":
		fmt.Printf("PageWarden v%s\n", Version)
		fmt.Println("Phishing page scanner")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("PageWarden v%s - Phishing page scanner\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  pagewarden serve        Start the HTTP gateway")
	fmt.Println("  pagewarden scan <url>   Scan one URL and print the verdict")
	fmt.Println("  pagewarden version      Show version")
	fmt.Println("")
	fmt.Println("Environment variables:")
	fmt.Println("  PAGEWARDEN_API_KEY            Scoring API key (required)")
	fmt.Println("  PAGEWARDEN_DEFAULT_TIER       Starting model tier")
	fmt.Println("  PAGEWARDEN_SAFE_THRESHOLD     Legitimate cut point (default: 80)")
	fmt.Println("  PAGEWARDEN_CAUTION_THRESHOLD  Uncertain cut point (default: 50)")
	fmt.Println("  PAGEWARDEN_ENABLE_BROWSER     Scripted extraction (default: true)")
	fmt.Println("  PAGEWARDEN_ENABLE_SEMANTICS   Template-similarity layer (default: false)")
	fmt.Println("  PAGEWARDEN_REDIS_ADDR         Redis-backed session store")
	fmt.Println("  PAGEWARDEN_DATABASE_URL       Durable scan history (Postgres)")
	fmt.Println("  PAGEWARDEN_LEXICON_FILE       YAML lexicon override")
	fmt.Println("  PAGEWARDEN_LISTEN_ADDR        Gateway address (default: :3000)")
	fmt.Println("  PAGEWARDEN_METRICS_ADDR       Prometheus address (default: :9109)")
}

// buildScanner assembles the pipeline from config. Optional layers degrade
// to disabled rather than failing startup; only a broken session store is
// fatal.
func buildScanner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*scan.Scanner, func(), error) {
	if cfg.LexiconFile != "" {
		if err := detect.LoadLexiconFile(cfg.LexiconFile); err != nil {
			return nil, nil, fmt.Errorf("load lexicon: %w", err)
		}
		logger.Info("lexicon override loaded", "path", cfg.LexiconFile)
	}

	var reader extract.PageReader
	if cfg.EnableBrowser {
		reader = extract.NewChromeReader(cfg.BrowserPoolSize, pageLoadTimeout)
		logger.Info("scripted extraction enabled", "pool_size", cfg.BrowserPoolSize)
	} else {
		reader = extract.NewHTTPReader()
		logger.Info("scripted extraction disabled, plain fetch only")
	}

	var cleanup []func()

	var store session.Store
	if cfg.RedisAddr != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		cleanup = append(cleanup, func() { _ = redisStore.Close() })
		store = redisStore
		logger.Info("redis session store enabled", "addr", cfg.RedisAddr)
	} else {
		store = session.NewMemoryStore()
	}

	var detector *semantic.Detector
	if cfg.EnableSemantics {
		d, err := semantic.New(ctx, cfg.APIKey, cfg.BaseURL)
		if err != nil {
			logger.Warn("semantic layer disabled", "error", err)
		} else {
			detector = d
			logger.Info("semantic template matching enabled")
		}
	}

	var histLog *history.Log
	if cfg.DatabaseURL != "" {
		l, err := history.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("scan history disabled", "error", err)
		} else {
			histLog = l
			cleanup = append(cleanup, l.Close)
			logger.Info("durable scan history enabled")
		}
	}

	thresholds := detect.NewThresholdStore(detect.Thresholds{
		Safe:    cfg.SafeThreshold,
		Caution: cfg.CautionThreshold,
	})

	scanner := scan.NewScanner(scan.Params{
		Config:     cfg,
		Extractor:  extract.NewExtractor(reader, nil),
		Store:      store,
		Thresholds: thresholds,
		Semantic:   detector,
		History:    histLog,
		Logger:     logger,
	})

	closeAll := func() {
		for _, fn := range cleanup {
			fn()
		}
	}
	return scanner, closeAll, nil
}

func runServer(logger *slog.Logger) {
	cfg := config.NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	scanner, closeAll, err := buildScanner(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer closeAll()

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		logger.Info("metrics listening", "addr", cfg.MetricsAddr)
	}

	app := fiber.New(fiber.Config{
		AppName: "PageWarden",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Post("/v1/scan", func(c fiber.Ctx) error {
		var req struct {
			SessionID  string `json:"session_id"`
			URL        string `json:"url"`
			Trigger    string `json:"trigger"`
			KnownTitle string `json:"known_title"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.URL == "" {
			return c.Status(400).JSON(fiber.Map{"error": "url field is required"})
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}
		trigger := snapshot.TriggerManual
		if req.Trigger == string(snapshot.TriggerPassive) {
			trigger = snapshot.TriggerPassive
		}

		verdict, err := scanner.Scan(c.Context(), &snapshot.ScanRequest{
			SessionID:  req.SessionID,
			Trigger:    trigger,
			URL:        req.URL,
			KnownTitle: req.KnownTitle,
		})
		if err != nil {
			return c.Status(scanStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"session_id": req.SessionID,
			"band":       verdict.Band,
			"result":     verdict.Result,
		})
	})

	app.Get("/v1/scan/:session", func(c fiber.Ctx) error {
		verdict, ok, err := scanner.Verdict(c.Context(), c.Params("session"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "no result for session"})
		}
		return c.JSON(fiber.Map{
			"session_id": c.Params("session"),
			"band":       verdict.Band,
			"result":     verdict.Result,
		})
	})

	app.Post("/v1/session/:session/navigated", func(c fiber.Ctx) error {
		if err := scanner.Navigated(c.Context(), c.Params("session")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"invalidated": true})
	})

	app.Get("/v1/scan/:session/history", func(c fiber.Ctx) error {
		entries, err := scanner.History(c.Context(), c.Params("session"), 20)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"entries": entries})
	})

	app.Get("/v1/config/thresholds", func(c fiber.Ctx) error {
		return c.JSON(scanner.Thresholds().Load())
	})

	app.Put("/v1/config/thresholds", func(c fiber.Ctx) error {
		var req detect.Thresholds
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}
		// The installed values are returned: out-of-range input is
		// normalized, not rejected.
		return c.JSON(scanner.Thresholds().Update(req))
	})

	logger.Info("gateway listening", "addr", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}

// scanStatus maps pipeline failures onto HTTP statuses.
func scanStatus(err error) int {
	switch {
	case errors.Is(err, config.ErrCredentialMissing), errors.Is(err, config.ErrCredentialInvalid):
		return http.StatusServiceUnavailable
	case errors.Is(err, extract.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	default:
		var exhausted *detect.AllTiersExhaustedError
		if errors.As(err, &exhausted) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func runCLIScan(logger *slog.Logger, url string) {
	cfg := config.NewDefaultConfig()
	scanner, closeAll, err := buildScanner(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer closeAll()

	verdict, err := scanner.Scan(context.Background(), &snapshot.ScanRequest{
		SessionID: uuid.NewString(),
		Trigger:   snapshot.TriggerManual,
		URL:       url,
	})
	if err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(out))
}
