package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// BackendReply is what a FakeBackend answers for one request.
type BackendReply struct {
	Status int
	Body   any // encoded as JSON; a string is written raw
}

// CurveReply builds a 200 reply carrying curve and optional log lines.
func CurveReply(curve []float64, logs ...string) BackendReply {
	body := map[string]any{"infection_curve": curve}
	if len(logs) > 0 {
		body["verbose_logs"] = logs
	}
	return BackendReply{Status: http.StatusOK, Body: body}
}

// ErrorReply builds a non-2xx reply with an {"error": msg} body.
func ErrorReply(status int, msg string) BackendReply {
	return BackendReply{Status: status, Body: map[string]string{"error": msg}}
}

// FakeBackend stands in for the simulation service. It records every
// decoded "config" object it receives.
type FakeBackend struct {
	srv *httptest.Server

	mu      sync.Mutex
	configs []map[string]any
	reply   func(config map[string]any) BackendReply
}

// NewFakeBackend starts a fake simulation service that answers each POST
// with reply(config). The server is closed via t.Cleanup.
func NewFakeBackend(t *testing.T, reply func(config map[string]any) BackendReply) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{reply: reply}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

// StaticBackend starts a fake simulation service that always gives r.
func StaticBackend(t *testing.T, r BackendReply) *FakeBackend {
	t.Helper()
	return NewFakeBackend(t, func(map[string]any) BackendReply { return r })
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Config map[string]any `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Config == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Configuration data not provided"}`))
		return
	}

	fb.mu.Lock()
	fb.configs = append(fb.configs, req.Config)
	fb.mu.Unlock()

	rep := fb.reply(req.Config)
	if rep.Status == 0 {
		rep.Status = http.StatusOK
	}

	if raw, ok := rep.Body.(string); ok {
		w.WriteHeader(rep.Status)
		_, _ = w.Write([]byte(raw))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.Status)
	_ = json.NewEncoder(w).Encode(rep.Body)
}

// URL returns the run endpoint of the fake service.
func (fb *FakeBackend) URL() string {
	return fb.srv.URL + "/run_simulation"
}

// Configs returns a copy of every config received so far.
func (fb *FakeBackend) Configs() []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]map[string]any, len(fb.configs))
	copy(out, fb.configs)
	return out
}

// Calls returns the number of runs received.
func (fb *FakeBackend) Calls() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.configs)
}
