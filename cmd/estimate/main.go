// Package main implements a one-shot estimate CLI: resolve a VIN, run the
// damage photos through the pipeline, and print the estimate as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/catalog"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/detect"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/estimate"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/labor"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/vinindex"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/vision"
)

func main() {
	var (
		vin         = flag.String("vin", "", "vehicle identification number")
		vinTable    = flag.String("vin-table", "data/vin_reference.csv", "VIN reference CSV")
		catalogPath = flag.String("catalog", "data/oem_catalog.csv", "OEM catalog CSV")
		laborPath   = flag.String("labor", "data/labor_hours.csv", "labor hours CSV")
		visionURL   = flag.String("vision-url", "http://localhost:8500", "vision service base URL")
		laborRate   = flag.Float64("labor-rate", estimate.DefaultConfig.LaborRate, "labor rate per hour")
		taxRate     = flag.Float64("tax-rate", estimate.DefaultConfig.TaxRate, "sales tax fraction (0 = tax-free)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *vin == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: estimate -vin VIN [flags] image.jpg [image2.jpg ...]")
		os.Exit(2)
	}

	if err := run(*vin, flag.Args(), *vinTable, *catalogPath, *laborPath, *visionURL, *laborRate, *taxRate, logger); err != nil {
		fmt.Fprintln(os.Stderr, "estimate:", err)
		os.Exit(1)
	}
}

func run(vin string, imagePaths []string, vinTable, catalogPath, laborPath, visionURL string, laborRate, taxRate float64, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := vinindex.LoadCSVFile(vinTable)
	if err != nil {
		return fmt.Errorf("vin table: %w", err)
	}
	entries, err := catalog.LoadCSVFile(catalogPath)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	laborTable, err := labor.LoadCSVFile(laborPath, labor.Defaults{})
	if err != nil {
		return fmt.Errorf("labor table: %w", err)
	}

	images := make([][]byte, 0, len(imagePaths))
	for _, p := range imagePaths {
		img, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		images = append(images, img)
	}

	svc := estimate.NewService(estimate.Deps{
		Registry:    registry,
		Scoper:      catalog.NewScoper(catalog.NewMemorySource(entries)),
		Normalizer:  detect.NewNormalizer(detect.DefaultThresholds, logger),
		Pricer:      estimate.NewPricer(estimate.Config{LaborRate: laborRate, TaxRate: taxRate}, laborTable, logger),
		PartModel:   vision.NewHTTPClient(visionURL, "/predict/parts"),
		DamageModel: vision.NewHTTPClient(visionURL, "/predict/damage"),
		Logger:      logger,
	})

	est, err := svc.Estimate(ctx, estimate.Request{VIN: vin, Images: images})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(est)
}
