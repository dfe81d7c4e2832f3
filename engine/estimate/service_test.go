package estimate

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/catalog"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/detect"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/vinindex"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/fn"
)

const (
	civicVIN  = "1HGBH41JXMN109186"
	ghostVIN  = "5YJSA1E26MF000001"
	emptyMake = "2T1BURHE5JC000000"
)

func testRegistry() *vinindex.Registry {
	return vinindex.New([]vinindex.Row{
		{VIN: civicVIN, Make: "Honda", Model: "Civic", Year: 2021},
		{VIN: emptyMake, Make: "Lada", Model: "Niva", Year: 1994},
	})
}

func testScoper() *catalog.Scoper {
	return catalog.NewScoper(catalog.NewMemorySource([]domain.CatalogEntry{
		{Make: "HONDA", Description: "Front bumper cover", Price: 150},
		{Make: "HONDA", Description: "Hood panel", Price: 200},
		{Make: "HONDA", Description: "Hood assembly", Price: 240},
		{Make: "HONDA", Description: "Headlight assembly", Price: 120},
	}))
}

// perImageStub returns fixed probabilities keyed by image payload.
type perImageStub struct {
	byImage map[string]map[string]float64
	calls   atomic.Int64
}

func (s *perImageStub) Predict(_ context.Context, image []byte) (map[string]float64, error) {
	s.calls.Add(1)
	return s.byImage[string(image)], nil
}

func newTestService(t *testing.T, part, damage detect.Predictor) *Service {
	t.Helper()
	return NewService(Deps{
		Registry:    testRegistry(),
		Scoper:      testScoper(),
		Normalizer:  detect.NewNormalizer(detect.Thresholds{}, nil),
		Pricer:      NewPricer(DefaultConfig, testLaborTable(t), nil),
		PartModel:   part,
		DamageModel: damage,
		Retry:       fn.RetryOpts{MaxAttempts: 1},
	})
}

func TestEstimate_TwoImageRepairConsolidation(t *testing.T) {
	parts := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Front-bumper": 0.85},
		"img1": {"Front-bumper": 0.91},
	}}
	damages := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Scratch": 0.80},
		"img1": {"Dent": 0.75},
	}}
	svc := newTestService(t, parts, damages)

	est, err := svc.Estimate(context.Background(), Request{
		VIN:    civicVIN,
		Images: [][]byte{[]byte("img0"), []byte("img1")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if est.ID == "" {
		t.Error("expected an estimate id")
	}
	if est.Vehicle.Make != "Honda" || est.Vehicle.Model != "Civic" || est.Vehicle.Year != 2021 {
		t.Errorf("unexpected vehicle: %+v", est.Vehicle)
	}
	if len(est.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(est.LineItems))
	}

	item := est.LineItems[0]
	if item.Part != domain.PartFrontBumper {
		t.Errorf("part = %q", item.Part)
	}
	if item.Action != domain.ActionRepair {
		t.Errorf("scratch and dent are both repairs, got %q", item.Action)
	}
	if float64(item.Confidence) != 0.91 {
		t.Errorf("confidence = %v, want max 0.91", float64(item.Confidence))
	}
	if len(item.Damages) != 2 {
		t.Errorf("damages = %v, want scratch and dent", item.Damages)
	}

	// 2.5 repair hours at $55/h plus 6% tax.
	wantTotal := 2.5 * 55.0 * 1.06
	if math.Abs(float64(item.TotalWithTax)-wantTotal) > 1e-9 {
		t.Errorf("item total = %v, want %v", item.TotalWithTax, wantTotal)
	}
	if math.Abs(float64(est.Summary.TotalEstimate)-wantTotal) > 1e-9 {
		t.Errorf("summary total = %v, want %v", est.Summary.TotalEstimate, wantTotal)
	}
	if est.Summary.TotalParts != 1 || est.Summary.PartsToRepair != 1 || est.Summary.PartsToReplace != 0 {
		t.Errorf("unexpected summary: %+v", est.Summary)
	}
	if len(est.Notes) == 0 {
		t.Error("expected advisory notes")
	}
}

func TestEstimate_ReplaceUsesMeanCatalogPrice(t *testing.T) {
	parts := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Hood": 0.9},
	}}
	damages := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Crack": 0.9},
	}}
	svc := newTestService(t, parts, damages)

	est, err := svc.Estimate(context.Background(), Request{
		VIN:    civicVIN,
		Images: [][]byte{[]byte("img0")},
	})
	if err != nil {
		t.Fatal(err)
	}

	item := est.LineItems[0]
	if item.Action != domain.ActionReplace {
		t.Fatalf("crack requires replacement, got %q", item.Action)
	}
	if item.PartPrice == nil || float64(*item.PartPrice) != 220 {
		t.Errorf("part price = %v, want mean of hood rows 220", item.PartPrice)
	}
	if !item.HasCatalogPrice {
		t.Error("expected catalog-backed price")
	}
	wantSub := 220 + 2.5*55.0
	if math.Abs(float64(item.TotalWithTax)-wantSub*1.06) > 1e-9 {
		t.Errorf("item total = %v, want %v", item.TotalWithTax, wantSub*1.06)
	}
	if est.Summary.PartsToReplace != 1 {
		t.Errorf("unexpected summary: %+v", est.Summary)
	}
}

func TestEstimate_SummaryReconcilesWithItems(t *testing.T) {
	parts := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Front-bumper": 0.85, "Hood": 0.9, "Headlamp": 0.8},
	}}
	damages := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Scratch": 0.8, "Lamp broken": 0.9},
	}}
	svc := newTestService(t, parts, damages)

	est, err := svc.Estimate(context.Background(), Request{
		VIN:    civicVIN,
		Images: [][]byte{[]byte("img0")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(est.LineItems) != 3 {
		t.Fatalf("expected 3 line items, got %d", len(est.LineItems))
	}

	var sum Money
	for _, item := range est.LineItems {
		sum += item.TotalWithTax
	}
	if math.Abs(float64(sum-est.Summary.TotalEstimate)) > 1e-9 {
		t.Errorf("summary %v does not reconcile with item sum %v", est.Summary.TotalEstimate, sum)
	}
	if est.Summary.TotalParts != 3 {
		t.Errorf("total parts = %d", est.Summary.TotalParts)
	}
	if est.Summary.PartsToRepair+est.Summary.PartsToReplace != est.Summary.TotalParts {
		t.Errorf("action counts do not sum: %+v", est.Summary)
	}
}

func TestEstimate_NoDamageIsSuccess(t *testing.T) {
	parts := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Front-bumper": 0.40},
	}}
	damages := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Scratch": 0.30},
	}}
	svc := newTestService(t, parts, damages)

	est, err := svc.Estimate(context.Background(), Request{
		VIN:    civicVIN,
		Images: [][]byte{[]byte("img0")},
	})
	if err != nil {
		t.Fatalf("no qualifying detection must not fail: %v", err)
	}
	if !est.NoDamage() {
		t.Errorf("expected no-damage variant, got %+v", est)
	}
	if est.Message != NoDamageMessage {
		t.Errorf("message = %q", est.Message)
	}
	if est.ID == "" {
		t.Error("no-damage estimates still carry an id")
	}
	if est.Summary.TotalEstimate != 0 {
		t.Errorf("total = %v, want 0", est.Summary.TotalEstimate)
	}
}

func TestEstimate_UnknownVINSkipsInference(t *testing.T) {
	parts := &perImageStub{byImage: map[string]map[string]float64{}}
	damages := &perImageStub{byImage: map[string]map[string]float64{}}
	svc := newTestService(t, parts, damages)

	_, err := svc.Estimate(context.Background(), Request{
		VIN:    ghostVIN,
		Images: [][]byte{[]byte("img0")},
	})
	if !errors.Is(err, domain.ErrVINNotFound) {
		t.Fatalf("expected ErrVINNotFound, got %v", err)
	}
	if n := parts.calls.Load() + damages.calls.Load(); n != 0 {
		t.Errorf("inference must not run for an unknown VIN, saw %d calls", n)
	}
}

func TestEstimate_NoCatalogForMake(t *testing.T) {
	parts := &perImageStub{byImage: map[string]map[string]float64{}}
	damages := &perImageStub{byImage: map[string]map[string]float64{}}
	svc := newTestService(t, parts, damages)

	_, err := svc.Estimate(context.Background(), Request{
		VIN:    emptyMake,
		Images: [][]byte{[]byte("img0")},
	})
	if !errors.Is(err, domain.ErrNoCatalogForMake) {
		t.Fatalf("expected ErrNoCatalogForMake, got %v", err)
	}

	var nce *NoCatalogError
	if !errors.As(err, &nce) {
		t.Fatalf("expected NoCatalogError, got %T", err)
	}
	if nce.Vehicle.Make != "Lada" || nce.Vehicle.Model != "Niva" {
		t.Errorf("vehicle identity lost: %+v", nce.Vehicle)
	}
	if n := parts.calls.Load() + damages.calls.Load(); n != 0 {
		t.Errorf("inference must not run without a catalog, saw %d calls", n)
	}
}

func TestEstimate_RequestValidation(t *testing.T) {
	svc := newTestService(t,
		&perImageStub{byImage: map[string]map[string]float64{}},
		&perImageStub{byImage: map[string]map[string]float64{}},
	)

	_, err := svc.Estimate(context.Background(), Request{VIN: civicVIN})
	if !errors.Is(err, domain.ErrNoImages) {
		t.Errorf("expected ErrNoImages, got %v", err)
	}

	_, err = svc.Estimate(context.Background(), Request{
		VIN:    "NOT A VIN",
		Images: [][]byte{[]byte("img0")},
	})
	if !errors.Is(err, domain.ErrInvalidVIN) {
		t.Errorf("expected ErrInvalidVIN, got %v", err)
	}
}

func TestEstimate_InferenceFailureFailsRequest(t *testing.T) {
	parts := detect.PredictorFunc(func(context.Context, []byte) (map[string]float64, error) {
		return nil, errors.New("model offline")
	})
	damages := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Scratch": 0.8},
	}}
	svc := newTestService(t, parts, damages)

	_, err := svc.Estimate(context.Background(), Request{
		VIN:    civicVIN,
		Images: [][]byte{[]byte("img0")},
	})
	if err == nil {
		t.Fatal("expected inference failure to fail the estimate")
	}
}

func TestEstimate_PublishesCompletedEvent(t *testing.T) {
	parts := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Hood": 0.9},
	}}
	damages := &perImageStub{byImage: map[string]map[string]float64{
		"img0": {"Dent": 0.7},
	}}

	var got CompletedEvent
	pub := publisherFunc(func(_ context.Context, ev CompletedEvent) error {
		got = ev
		return nil
	})
	svc := NewService(Deps{
		Registry:    testRegistry(),
		Scoper:      testScoper(),
		Normalizer:  detect.NewNormalizer(detect.Thresholds{}, nil),
		Pricer:      NewPricer(DefaultConfig, testLaborTable(t), nil),
		PartModel:   parts,
		DamageModel: damages,
		Publisher:   pub,
		Retry:       fn.RetryOpts{MaxAttempts: 1},
	})

	est, err := svc.Estimate(context.Background(), Request{
		VIN:    civicVIN,
		Images: [][]byte{[]byte("img0")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.EstimateID != est.ID {
		t.Errorf("event id = %q, want %q", got.EstimateID, est.ID)
	}
	if got.VIN != civicVIN || got.Make != "Honda" {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.LineItems != 1 || got.NoDamage {
		t.Errorf("unexpected event: %+v", got)
	}
}

type publisherFunc func(context.Context, CompletedEvent) error

func (f publisherFunc) PublishCompleted(ctx context.Context, ev CompletedEvent) error {
	return f(ctx, ev)
}
