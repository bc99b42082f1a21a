// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/internrank/internal/dataset"
	"github.com/tomtom215/internrank/internal/models"
	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/pipeline"
	"github.com/tomtom215/internrank/internal/recommend/storage"
)

var (
	sharedOnce sync.Once
	sharedSvc  *pipeline.Service
	sharedErr  error
)

func testPipelineConfig() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.ALS.Factors = 8
	cfg.ALS.Iterations = 6
	cfg.ALS.Workers = 2
	cfg.Calibration.Folds = 2
	cfg.Limits.RankWorkers = 4
	return cfg
}

func buildService(ctx context.Context, seed int64) (*pipeline.Service, error) {
	snap := dataset.Synthetic(dataset.SyntheticConfig{
		Persons:         60,
		Opportunities:   20,
		EventsPerPerson: 5,
		LabelsPerPerson: 4,
		Seed:            seed,
	})
	return pipeline.New(ctx, snap, testPipelineConfig(), zerolog.Nop())
}

// testService builds one service shared by every test in the package.
func testService(t *testing.T) *pipeline.Service {
	t.Helper()
	sharedOnce.Do(func() {
		sharedSvc, sharedErr = buildService(context.Background(), 11)
	})
	if sharedErr != nil {
		t.Fatalf("build service: %v", sharedErr)
	}
	return sharedSvc
}

func testHandlerConfig() HandlerConfig {
	return HandlerConfig{
		RequestTimeout:     5 * time.Second,
		RefreshTimeout:     time.Minute,
		BreakerFailures:    5,
		BreakerOpenTimeout: time.Minute,
		RefreshPerMinute:   1,
		RefreshBurst:       1,
		Version:            "test",
	}
}

// newTestServer returns a router over a holder that already publishes the
// shared service.
func newTestServer(t *testing.T, cfg HandlerConfig) (http.Handler, *Handler) {
	t.Helper()
	holder := pipeline.NewHolder(func(ctx context.Context) (*pipeline.Service, error) {
		return buildService(ctx, 11)
	})
	holder.Store(testService(t))
	h := NewHandler(holder, cfg)
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	return NewRouter(h, mw).SetupChi(), h
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func do(t *testing.T, srv http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestRecommendations(t *testing.T) {
	srv, _ := newTestServer(t, testHandlerConfig())
	svc := testService(t)
	person := svc.PersonIDs()[0]

	rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations/"+person+"?top_n=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var slate recommend.Slate
	if err := json.Unmarshal(env.Data, &slate); err != nil {
		t.Fatal(err)
	}
	if slate.PersonID != person || slate.K != 5 || len(slate.Entries) == 0 || len(slate.Entries) > 5 {
		t.Errorf("slate = %+v", slate)
	}
	if err := slate.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if env.Metadata.Fingerprint != svc.Diagnostics().Fingerprint {
		t.Errorf("fingerprint = %q", env.Metadata.Fingerprint)
	}
	if env.Metadata.RequestID == "" || rec.Header().Get("X-Request-ID") != env.Metadata.RequestID {
		t.Error("request id missing or not echoed")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestRecommendationsErrors(t *testing.T) {
	srv, _ := newTestServer(t, testHandlerConfig())
	person := testService(t).PersonIDs()[0]

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown person", "/api/v1/recommendations/NOBODY", http.StatusNotFound, models.CodeNotFound},
		{"non-integer top_n", "/api/v1/recommendations/" + person + "?top_n=ten", http.StatusBadRequest, models.CodeValidation},
		{"negative top_n", "/api/v1/recommendations/" + person + "?top_n=-1", http.StatusBadRequest, models.CodeValidation},
		{"huge top_n", "/api/v1/recommendations/" + person + "?top_n=5000", http.StatusBadRequest, models.CodeValidation},
		{"unknown route", "/api/v1/nothing", http.StatusNotFound, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, srv, http.MethodGet, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

func TestRecommendationsTimeoutFallback(t *testing.T) {
	cfg := testHandlerConfig()
	cfg.RequestTimeout = time.Nanosecond
	srv, _ := newTestServer(t, cfg)
	person := testService(t).PersonIDs()[1]

	rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations/"+person+"?top_n=4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var slate recommend.Slate
	if err := json.Unmarshal(env.Data, &slate); err != nil {
		t.Fatal(err)
	}
	if !slate.Fallback || len(slate.Entries) != 0 || slate.K != 4 || slate.PersonID != person {
		t.Errorf("slate = %+v, want empty fallback", slate)
	}
	if !env.Metadata.TimedOut {
		t.Error("metadata.timed_out not set")
	}
}

func TestModelUnavailable(t *testing.T) {
	h := NewHandler(pipeline.NewHolder(nil), testHandlerConfig())
	srv := NewRouter(h, nil).SetupChi()

	for _, path := range []string{"/api/v1/recommendations/STU0001", "/api/v1/diagnostics"} {
		rec, env := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != models.CodeModelUnavailable {
			t.Errorf("%s: status %d envelope %+v", path, rec.Code, env)
		}
	}
	rec, _ := do(t, srv, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d before build", rec.Code)
	}
	rec, _ = do(t, srv, http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
}

func TestRecommendationsBatch(t *testing.T) {
	srv, _ := newTestServer(t, testHandlerConfig())
	ids := testService(t).PersonIDs()[:3]

	body := `{"person_ids":["` + strings.Join(ids, `","`) + `","GHOST"],"top_n":3}`
	rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res models.BatchResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Slates) != 3 {
		t.Errorf("slates = %d, want 3", len(res.Slates))
	}
	if len(res.Unknown) != 1 || res.Unknown[0] != "GHOST" {
		t.Errorf("unknown = %v", res.Unknown)
	}
	if res.Audit.Persons != 3 {
		t.Errorf("audit persons = %d", res.Audit.Persons)
	}

	bad := []struct {
		name string
		body string
	}{
		{"not json", `person_ids=1`},
		{"bad id", `{"person_ids":["a b"]}`},
		{"negative top_n", `{"top_n":-2}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations/batch", tt.body)
			if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != models.CodeValidation {
				t.Errorf("status %d envelope %+v", rec.Code, env)
			}
		})
	}
}

func TestRecommendationsBatchTimeout(t *testing.T) {
	cfg := testHandlerConfig()
	cfg.RequestTimeout = time.Nanosecond
	srv, _ := newTestServer(t, cfg)
	ids := testService(t).PersonIDs()[:2]

	body := `{"person_ids":["` + ids[0] + `","` + ids[1] + `","GHOST"]}`
	rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations/batch", body)
	if rec.Code != http.StatusOK || !env.Metadata.TimedOut {
		t.Fatalf("status = %d timed_out = %v", rec.Code, env.Metadata.TimedOut)
	}
	var res models.BatchResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		s, ok := res.Slates[id]
		if !ok || !s.Fallback || len(s.Entries) != 0 {
			t.Errorf("slate for %s = %+v", id, s)
		}
	}
	if len(res.Unknown) != 1 {
		t.Errorf("unknown = %v", res.Unknown)
	}
}

func TestDiagnostics(t *testing.T) {
	srv, _ := newTestServer(t, testHandlerConfig())
	rec, env := do(t, srv, http.MethodGet, "/api/v1/diagnostics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var d struct {
		Persons int                `json:"persons"`
		Stages  map[string]float64 `json:"stages"`
		Breaker string             `json:"breaker"`
	}
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatal(err)
	}
	if d.Persons != 60 || len(d.Stages) == 0 || d.Breaker != "closed" {
		t.Errorf("diagnostics = %+v", d)
	}
}

func TestAdminRefresh(t *testing.T) {
	srv, h := newTestServer(t, testHandlerConfig())
	before := h.holder.Load()

	rec, env := do(t, srv, http.MethodPost, "/api/v1/admin/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res models.RefreshResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if h.holder.Load() == before {
		t.Error("refresh did not publish a new service")
	}
	if res.Changed || res.Fingerprint != res.PreviousFingerprint {
		t.Errorf("same data should keep the fingerprint: %+v", res)
	}
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("run_id = %q, want a UUID", res.RunID)
	}

	rec, env = do(t, srv, http.MethodPost, "/api/v1/admin/refresh", "")
	if rec.Code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != models.CodeRateLimited {
		t.Errorf("second refresh status = %d envelope %+v", rec.Code, env)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}

func TestAdminRefreshFailureKeepsService(t *testing.T) {
	holder := pipeline.NewHolder(func(ctx context.Context) (*pipeline.Service, error) {
		return nil, recommend.ErrDataUnavailable
	})
	holder.Store(testService(t))
	h := NewHandler(holder, testHandlerConfig())
	srv := NewRouter(h, nil).SetupChi()

	rec, env := do(t, srv, http.MethodPost, "/api/v1/admin/refresh", "")
	if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != models.CodeRefreshFailed {
		t.Errorf("status = %d envelope %+v", rec.Code, env)
	}
	if holder.Load() != testService(t) {
		t.Error("failed refresh replaced the service")
	}
}

func TestRunWithTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	_, timedOut, err := runWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-block
		return 1, nil
	})
	if !timedOut || err != nil {
		t.Errorf("blocking fn: timedOut = %v err = %v", timedOut, err)
	}

	v, timedOut, err := runWithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	if v != 7 || timedOut || err != nil {
		t.Errorf("fast fn: %d %v %v", v, timedOut, err)
	}

	want := errors.New("boom")
	_, timedOut, err = runWithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, want
	})
	if timedOut || !errors.Is(err, want) {
		t.Errorf("failing fn: %v %v", timedOut, err)
	}
}

func TestAdminModels(t *testing.T) {
	srv, _ := newTestServer(t, testHandlerConfig())
	rec, env := do(t, srv, http.MethodGet, "/api/v1/admin/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res storedModelsResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Enabled || len(res.Models) != 0 {
		t.Errorf("without a model store: %+v", res)
	}

	st, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap := dataset.Synthetic(dataset.SyntheticConfig{Persons: 60, Opportunities: 20, EventsPerPerson: 5, LabelsPerPerson: 4, Seed: 11})
	svc, err := pipeline.New(context.Background(), snap, testPipelineConfig(), zerolog.Nop(), pipeline.WithModelStore(st))
	if err != nil {
		t.Fatal(err)
	}
	holder := pipeline.NewHolder(nil)
	holder.Store(svc)
	srv = NewRouter(NewHandler(holder, testHandlerConfig()), nil).SetupChi()

	rec, env = do(t, srv, http.MethodGet, "/api/v1/admin/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	res = storedModelsResponse{}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if !res.Enabled || len(res.Models) != 1 {
		t.Errorf("with a model store: enabled = %v, models = %d, want true and 1", res.Enabled, len(res.Models))
	}
}

func TestAdminModelsUnavailable(t *testing.T) {
	srv := NewRouter(NewHandler(pipeline.NewHolder(nil), testHandlerConfig()), nil).SetupChi()
	rec, env := do(t, srv, http.MethodGet, "/api/v1/admin/models", "")
	if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != models.CodeModelUnavailable {
		t.Errorf("status = %d envelope %+v", rec.Code, env)
	}
}
