package vision

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/natsutil"
)

// Default inference subjects.
const (
	SubjectParts  = "vision.predict.parts"
	SubjectDamage = "vision.predict.damage"

	// WorkerQueue is the queue group inference workers join so requests are
	// load balanced across them.
	WorkerQueue = "vision-workers"
)

// natsPredictReq mirrors the HTTP request body; raw bytes are base64 coded
// by encoding/json automatically.
type natsPredictReq struct {
	Image []byte `json:"image"`
}

type natsPredictResp struct {
	Probabilities map[string]float64 `json:"probabilities"`
	Error         string             `json:"error,omitempty"`
}

// NATSClient calls a perception model over NATS request-reply.
type NATSClient struct {
	nc      *nats.Conn
	subject string
}

// NewNATSClient creates a client for the model answering on subject.
func NewNATSClient(nc *nats.Conn, subject string) *NATSClient {
	return &NATSClient{nc: nc, subject: subject}
}

// Predict implements detect.Predictor.
func (c *NATSClient) Predict(ctx context.Context, image []byte) (map[string]float64, error) {
	resp, err := natsutil.Request[natsPredictReq, natsPredictResp](ctx, c.nc, c.subject, natsPredictReq{Image: image})
	if err != nil {
		return nil, fmt.Errorf("vision %s: %w", c.subject, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("vision %s: %s", c.subject, resp.Error)
	}
	return resp.Probabilities, nil
}

// Predictor is the model call surface shared by HTTPClient and NATSClient.
type Predictor interface {
	Predict(ctx context.Context, image []byte) (map[string]float64, error)
}

// ServeNATS answers prediction requests on subject by delegating to backend.
// Workers join WorkerQueue so concurrent workers share the load.
func ServeNATS(nc *nats.Conn, subject string, backend Predictor) (*nats.Subscription, error) {
	return natsutil.Serve(nc, subject, WorkerQueue, func(ctx context.Context, req natsPredictReq) (natsPredictResp, error) {
		probs, err := backend.Predict(ctx, req.Image)
		if err != nil {
			return natsPredictResp{Error: err.Error()}, nil
		}
		return natsPredictResp{Probabilities: probs}, nil
	})
}
