package estimate

import (
	"context"

	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

// CompletedSubject is the NATS subject completed estimates are published to.
const CompletedSubject = "estimate.completed"

// CompletedEvent is the message published after a successful estimate.
type CompletedEvent struct {
	EstimateID string `json:"estimate_id"`
	VIN        string `json:"vin"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	LineItems  int    `json:"line_items"`
	Total      Money  `json:"total"`
	NoDamage   bool   `json:"no_damage"`
}

// Publisher emits estimate lifecycle events. Publishing is best-effort: the
// service logs failures but never fails an estimate over them.
type Publisher interface {
	PublishCompleted(ctx context.Context, ev CompletedEvent) error
}

// NATSPublisher publishes events over a NATS connection with trace
// propagation.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher creates a NATSPublisher.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher { return &NATSPublisher{nc: nc} }

// PublishCompleted implements Publisher.
func (p *NATSPublisher) PublishCompleted(ctx context.Context, ev CompletedEvent) error {
	return natsutil.Publish(ctx, p.nc, CompletedSubject, ev)
}

// NopPublisher discards events; used when no broker is configured.
type NopPublisher struct{}

// PublishCompleted implements Publisher.
func (NopPublisher) PublishCompleted(context.Context, CompletedEvent) error { return nil }
