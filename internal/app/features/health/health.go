// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"
	"sync"

	"github.com/dalemusser/stratasim/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasim/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check is one dependency probe. A failing critical check makes the service
// unready; a failing non-critical check only degrades it.
type Check struct {
	Name     string
	Critical bool
	Ping     func(ctx context.Context) error
}

// MongoCheck probes the primary of client.
func MongoCheck(client *mongo.Client) Check {
	return Check{
		Name:     "mongodb",
		Critical: true,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
}

// Handler provides health check endpoints.
type Handler struct {
	checks []Check
	logger *zap.Logger
}

// NewHandler creates a health Handler over the given checks.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	return &Handler{checks: checks, logger: logger}
}

// Response is the body of /health.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with /health, /health/ready and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe paths /ready, /readyz and /livez to r.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// run executes every check concurrently and reports per-check results.
func (h *Handler) run(ctx context.Context) (map[string]error, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()

	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make(map[string]error, len(h.checks))
	critical := true

	for _, c := range h.checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			err := c.Ping(ctx)
			mu.Lock()
			defer mu.Unlock()
			results[c.Name] = err
			if err != nil {
				h.logger.Warn("health check failed",
					zap.String("service", c.Name),
					zap.Bool("critical", c.Critical),
					zap.Error(err))
				if c.Critical {
					critical = false
				}
			}
		}(c)
	}
	wg.Wait()
	return results, critical
}

// Check reports every dependency. It answers 503 only when a critical
// dependency is down.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	results, healthy := h.run(r.Context())

	resp := Response{Status: "ok", Services: make(map[string]string, len(results))}
	for name, err := range results {
		if err != nil {
			resp.Services[name] = "unavailable"
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		} else {
			resp.Services[name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "down"
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready answers 200 when every critical dependency responds.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.run(r.Context()); !ok {
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live answers 200 while the process is serving.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
