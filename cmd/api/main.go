// Package main implements the AutoEstimate API server.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/catalog"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/detect"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/estimate"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/labor"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/vinindex"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/metrics"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/mid"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/vision"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	VINTablePath  string
	CatalogPath   string
	LaborPath     string
	VisionURL     string
	VisionMode    string // "http" or "nats"
	NATSURL       string
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	CatalogSource string // "csv" or "neo4j"
	LaborRate     float64
	TaxRate       float64
	PartThresh    float64
	DamageThresh  float64
	RepairHours   float64
	ReplaceHours  float64
	Workers       int
	CORSOrigin    string
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		VINTablePath:  envOr("VIN_TABLE_PATH", "data/vin_reference.csv"),
		CatalogPath:   envOr("CATALOG_PATH", "data/oem_catalog.csv"),
		LaborPath:     envOr("LABOR_PATH", "data/labor_hours.csv"),
		VisionURL:     envOr("VISION_URL", "http://localhost:8500"),
		VisionMode:    envOr("VISION_MODE", "http"),
		NATSURL:       envOr("NATS_URL", ""),
		Neo4jURL:      envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:     envOr("NEO4J_PASS", "password"),
		CatalogSource: envOr("CATALOG_SOURCE", "csv"),
		LaborRate:     envFloat("LABOR_RATE", estimate.DefaultConfig.LaborRate),
		TaxRate:       envFloat("TAX_RATE", estimate.DefaultConfig.TaxRate),
		PartThresh:    envFloat("PART_CONFIDENCE_THRESHOLD", 0),
		DamageThresh:  envFloat("DAMAGE_CONFIDENCE_THRESHOLD", 0),
		RepairHours:   envFloat("DEFAULT_REPAIR_HOURS", 0),
		ReplaceHours:  envFloat("DEFAULT_REPLACE_HOURS", 0),
		Workers:       int(envFloat("DETECT_WORKERS", 4)),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Reference data ---
	registry, err := vinindex.LoadCSVFile(cfg.VINTablePath)
	if err != nil {
		return fmt.Errorf("vin table: %w", err)
	}
	laborTable, err := labor.LoadCSVFile(cfg.LaborPath, labor.Defaults{
		RepairHours:  cfg.RepairHours,
		ReplaceHours: cfg.ReplaceHours,
	})
	if err != nil {
		return fmt.Errorf("labor table: %w", err)
	}
	logger.Info("reference data loaded", "vins", registry.Len(), "labor_rows", laborTable.Len())

	// --- Catalog source ---
	var catalogSrc catalog.Source
	switch cfg.CatalogSource {
	case "neo4j":
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(ctx)
		catalogSrc = catalog.NewGraphSource(driver)
	default:
		entries, err := catalog.LoadCSVFile(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		src := catalog.NewMemorySource(entries)
		logger.Info("catalog loaded", "entries", len(entries), "makes", src.Makes())
		catalogSrc = src
	}

	// --- Optional NATS ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name("autoestimate-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
	}

	// --- Perception models ---
	var partModel, damageModel detect.Predictor
	if cfg.VisionMode == "nats" {
		if nc == nil {
			return fmt.Errorf("VISION_MODE=nats requires NATS_URL")
		}
		partModel = vision.NewNATSClient(nc, vision.SubjectParts)
		damageModel = vision.NewNATSClient(nc, vision.SubjectDamage)
	} else {
		partModel = vision.NewHTTPClient(cfg.VisionURL, "/predict/parts")
		damageModel = vision.NewHTTPClient(cfg.VisionURL, "/predict/damage")
	}

	var publisher estimate.Publisher = estimate.NopPublisher{}
	if nc != nil {
		publisher = estimate.NewNATSPublisher(nc)
	}

	reg := metrics.New()

	svc := estimate.NewService(estimate.Deps{
		Registry:    registry,
		Scoper:      catalog.NewScoper(catalogSrc),
		Normalizer:  detect.NewNormalizer(detect.Thresholds{Part: cfg.PartThresh, Damage: cfg.DamageThresh}, logger),
		Pricer:      estimate.NewPricer(estimate.Config{LaborRate: cfg.LaborRate, TaxRate: cfg.TaxRate}, laborTable, logger),
		PartModel:   partModel,
		DamageModel: damageModel,
		Publisher:   publisher,
		Metrics:     reg,
		Logger:      logger,
		Workers:     cfg.Workers,
	})

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/estimate", handleEstimate(svc, reg, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("autoestimate-api"),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// EstimateRequest is the JSON body for POST /api/estimate. Images are base64
// encoded JPEG or PNG payloads.
type EstimateRequest struct {
	VIN    string   `json:"vin"`
	Images []string `json:"images"`
}

func handleEstimate(svc *estimate.Service, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	durations := reg.Histogram("estimate_request_duration_seconds", "End-to-end estimate latency.", nil)

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer durations.Since(start)

		var req EstimateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		images := make([][]byte, 0, len(req.Images))
		for i, enc := range req.Images {
			img, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("image %d is not valid base64", i))
				return
			}
			images = append(images, img)
		}

		est, err := svc.Estimate(r.Context(), estimate.Request{VIN: req.VIN, Images: images})
		if err != nil {
			writeEstimateError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(est)
	}
}

// writeEstimateError maps pipeline errors to HTTP statuses: validation
// failures are 400, an unknown VIN is 404, a known vehicle without catalog
// coverage is 422, and inference trouble is 502.
func writeEstimateError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var nce *estimate.NoCatalogError
	switch {
	case errors.Is(err, domain.ErrInvalidVIN), errors.Is(err, domain.ErrNoImages):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrVINNotFound):
		writeError(w, http.StatusNotFound, "vehicle not found for VIN")
	case errors.As(err, &nce):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   nce.Error(),
			"vehicle": nce.Vehicle,
		})
	default:
		logger.Error("estimate failed", "err", err)
		writeError(w, http.StatusBadGateway, "estimate pipeline failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
