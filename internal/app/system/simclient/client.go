// internal/app/system/simclient/client.go

// Package simclient calls the remote simulation service.
//
// The service takes one JSON POST of the form {"config": {...}} and answers
// with {"infection_curve": [...], "verbose_logs": [...]}. Non-2xx answers may
// carry {"error": "..."}.
package simclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratasim/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultEndpoint is where the reference backend listens.
const DefaultEndpoint = "http://localhost:5000/run_simulation"

// DefaultTimeout bounds one backend round trip.
const DefaultTimeout = 60 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// GenericFailureMessage is shown when the backend gave no usable error text.
const GenericFailureMessage = "An error occurred while running the simulation. Please check your inputs."

// ErrTransport wraps failures to reach the backend or to read its answer.
var ErrTransport = errors.New("simulation backend request failed")

// BackendError is a non-2xx answer from the backend. Message is the
// backend's "error" field and may be empty.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("simulation backend returned status %d", e.Status)
	}
	return fmt.Sprintf("simulation backend returned status %d: %s", e.Status, e.Message)
}

// UserMessage turns a Run error into the text shown to the user.
func UserMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return "Error: " + be.Message
	}
	return GenericFailureMessage
}

// Result is a successful backend answer.
type Result struct {
	Curve       []float64
	VerboseLogs []string // nil unless the request had verbose set
	Duration    time.Duration
}

// Config configures a Client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Client. Empty config values fall back to the defaults.
func New(cfg Config, logger *zap.Logger) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Endpoint returns the URL runs are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type runRequest struct {
	Config models.Parameters `json:"config"`
}

type runResponse struct {
	InfectionCurve []float64 `json:"infection_curve"`
	VerboseLogs    []string  `json:"verbose_logs"`
	Error          string    `json:"error"`
}

// Run posts params to the backend and returns the parsed answer.
// Errors are either *BackendError or wrap ErrTransport.
func (c *Client) Run(ctx context.Context, params models.Parameters) (Result, error) {
	body, err := json.Marshal(runRequest{Config: params})
	if err != nil {
		return Result{}, fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	elapsed := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var decoded runResponse
		// A body that is not JSON still yields a BackendError, just without text.
		_ = json.Unmarshal(payload, &decoded)
		c.logger.Warn("simulation backend returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("error", decoded.Error),
			zap.Duration("duration", elapsed))
		return Result{}, &BackendError{Status: resp.StatusCode, Message: decoded.Error}
	}

	var decoded runResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}

	res := Result{
		Curve:    decoded.InfectionCurve,
		Duration: elapsed,
	}
	if res.Curve == nil {
		res.Curve = []float64{}
	}
	if params.Verbose {
		res.VerboseLogs = decoded.VerboseLogs
	}

	c.logger.Debug("simulation completed",
		zap.Int("days", len(res.Curve)),
		zap.Int("log_lines", len(res.VerboseLogs)),
		zap.Duration("duration", elapsed))
	return res, nil
}

// Ping reports whether the backend answers HTTP at all. Any status counts as
// reachable; the run endpoint usually rejects GET with 405.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
	return nil
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
