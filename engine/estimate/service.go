// Package estimate implements the consolidation and cost-resolution engine:
// it merges per-image detections into per-part records, resolves each record
// into a priced line item, and assembles the final estimate.
package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/catalog"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/detect"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/vinindex"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/fn"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "engine/estimate"

// NoDamageMessage is the success message for a request with no qualifying
// detection in any image.
const NoDamageMessage = "No damaged parts detected in images"

// Deps holds the collaborators of the estimate service.
type Deps struct {
	Registry    *vinindex.Registry
	Scoper      *catalog.Scoper
	Normalizer  *detect.Normalizer
	Pricer      *Pricer
	PartModel   detect.Predictor
	DamageModel detect.Predictor
	Publisher   Publisher         // optional
	Metrics     *metrics.Registry // optional
	Logger      *slog.Logger
	// Workers bounds concurrent per-image inference; 0 means one goroutine
	// per image.
	Workers int
	Retry   fn.RetryOpts
}

// Service orchestrates the full pipeline: resolve → scope → detect per image
// → consolidate → price → assemble.
type Service struct {
	deps Deps
	log  *slog.Logger
}

// NewService creates a Service.
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = NopPublisher{}
	}
	if deps.Retry.MaxAttempts == 0 {
		deps.Retry = fn.DefaultRetry
	}
	return &Service{deps: deps, log: deps.Logger}
}

// Estimate runs one request through the pipeline. Vehicle resolution and
// catalog scoping failures abort the request; per-part pricing gaps degrade
// to flagged line items. A request with no qualifying detection returns a
// successful empty estimate.
func (s *Service) Estimate(ctx context.Context, req Request) (Estimate, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "estimate")
	defer span.End()

	est, err := s.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.count("error")
		return Estimate{}, err
	}

	if est.NoDamage() {
		s.count("no_damage")
	} else {
		s.count("ok")
	}
	s.publish(ctx, est)
	return est, nil
}

func (s *Service) run(ctx context.Context, req Request) (Estimate, error) {
	if len(req.Images) == 0 {
		return Estimate{}, domain.NewValidationError("images", "", domain.ErrNoImages)
	}
	if err := domain.ValidateVIN(req.VIN); err != nil {
		return Estimate{}, err
	}

	vehicle, err := s.deps.Registry.Resolve(req.VIN)
	if err != nil {
		return Estimate{}, fmt.Errorf("resolve %s: %w", req.VIN, err)
	}

	scope, err := s.deps.Scoper.Scope(ctx, vehicle)
	if err != nil {
		return Estimate{}, err
	}
	if scope.Empty() {
		return Estimate{}, &NoCatalogError{Vehicle: vehicle}
	}

	detections, err := s.detectAll(ctx, req.Images, scope)
	if err != nil {
		return Estimate{}, err
	}

	est := Estimate{ID: uuid.NewString(), Vehicle: vehicle}
	if len(detections) == 0 {
		est.Message = NoDamageMessage
		return est, nil
	}

	parts := Consolidate(detections)

	for _, part := range parts {
		item := s.deps.Pricer.Price(part, scope.EntriesFor(part.Part))
		est.LineItems = append(est.LineItems, item)
		// The grand total sums the already-computed item totals so the
		// summary always reconciles with the displayed breakdown.
		est.Summary.TotalEstimate += item.TotalWithTax
		if item.Action == domain.ActionReplace {
			est.Summary.PartsToReplace++
		} else {
			est.Summary.PartsToRepair++
		}
	}
	est.Summary.TotalParts = len(parts)
	est.Notes = s.advisoryNotes()

	s.log.Info("estimate: complete",
		"id", est.ID,
		"vin", vehicle.VIN,
		"parts", est.Summary.TotalParts,
		"replace", est.Summary.PartsToReplace,
		"repair", est.Summary.PartsToRepair,
	)
	return est, nil
}

// detectAll fans per-image inference out with bounded concurrency. Each
// image runs both perception models concurrently, then normalizes. Any
// inference failure fails the whole estimate; a partially observed vehicle
// would bias the consolidation merge.
func (s *Service) detectAll(ctx context.Context, images [][]byte, scope catalog.Scope) ([]domain.Detection, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "estimate.detect")
	defer span.End()

	type indexed struct {
		image []byte
		idx   int
	}
	work := make([]indexed, len(images))
	for i, img := range images {
		work[i] = indexed{image: img, idx: i}
	}

	results := fn.ParMapResult(work, s.deps.Workers, func(w indexed) fn.Result[[]domain.Detection] {
		return s.detectImage(ctx, w.image, w.idx, scope)
	})
	perImage, err := fn.Collect(results).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	return fn.FlatMap(perImage, func(dets []domain.Detection) []domain.Detection { return dets }), nil
}

func (s *Service) detectImage(ctx context.Context, image []byte, idx int, scope catalog.Scope) fn.Result[[]domain.Detection] {
	probs := fn.FanOutResult(
		func() fn.Result[map[string]float64] { return s.predict(ctx, s.deps.PartModel, image) },
		func() fn.Result[map[string]float64] { return s.predict(ctx, s.deps.DamageModel, image) },
	)
	pair, err := probs.Unwrap()
	if err != nil {
		return fn.Errf[[]domain.Detection]("image %d: %w", idx, err)
	}
	return fn.Ok(s.deps.Normalizer.Normalize(pair[0], pair[1], scope.ValidParts, idx))
}

func (s *Service) predict(ctx context.Context, model detect.Predictor, image []byte) fn.Result[map[string]float64] {
	if s.deps.Metrics != nil {
		defer s.deps.Metrics.Histogram(
			"inference_duration_seconds", "Perception model call latency, retries included.", nil,
		).Since(time.Now())
	}
	return fn.Retry(ctx, s.deps.Retry, func(ctx context.Context) fn.Result[map[string]float64] {
		return fn.FromPair(model.Predict(ctx, image))
	})
}

func (s *Service) advisoryNotes() []string {
	cfg := s.deps.Pricer.cfg
	return []string{
		fmt.Sprintf("Estimate includes %.0f%% sales tax", cfg.TaxRate*100),
		fmt.Sprintf("Labor rate: $%.0f/hour", cfg.LaborRate),
		"Based on OEM parts pricing where available",
		"Actual costs may vary based on shop rates and part availability",
		"Multiple images processed and consolidated",
	}
}

func (s *Service) publish(ctx context.Context, est Estimate) {
	ev := CompletedEvent{
		EstimateID: est.ID,
		VIN:        est.Vehicle.VIN,
		Make:       est.Vehicle.Make,
		Model:      est.Vehicle.Model,
		Year:       est.Vehicle.Year,
		LineItems:  len(est.LineItems),
		Total:      est.Summary.TotalEstimate,
		NoDamage:   est.NoDamage(),
	}
	if err := s.deps.Publisher.PublishCompleted(ctx, ev); err != nil {
		s.log.Warn("estimate: publish completed event", "err", err, "id", est.ID)
	}
}

func (s *Service) count(outcome string) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.Counter(
		metrics.WithLabels("estimates_total", "outcome", outcome),
		"Estimates processed by outcome.",
	).Inc()
}
