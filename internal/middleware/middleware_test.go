// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/internrank/internal/logging"
)

func TestRequestIDGeneratesID(t *testing.T) {
	var ctxID, corrID string
	h := RequestID(func(w http.ResponseWriter, r *http.Request) {
		ctxID = logging.RequestIDFromContext(r.Context())
		corrID = logging.CorrelationIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("response request id %q is not a UUID: %v", got, err)
	}
	if ctxID != got {
		t.Errorf("context id %q, header %q", ctxID, got)
	}
	if corrID == "" {
		t.Error("expected a correlation id in context")
	}
}

func TestRequestIDReusesUpstream(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"well formed", "req-123", true},
		{"whitespace", "bad id", false},
		{"slash", "a/b", false},
		{"too long", strings.Repeat("x", 200), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID string
			h := RequestID(func(w http.ResponseWriter, r *http.Request) {
				ctxID = logging.RequestIDFromContext(r.Context())
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.header)
			req.Header.Set(CorrelationIDHeader, "batch-7")
			rec := httptest.NewRecorder()
			h(rec, req)

			if (ctxID == tt.header) != tt.keep {
				t.Errorf("header %q kept=%v, want %v", tt.header, ctxID == tt.header, tt.keep)
			}
			if rec.Header().Get(RequestIDHeader) != ctxID {
				t.Error("response header does not match context")
			}
		})
	}
}

func TestRoutePatternLabel(t *testing.T) {
	var label string
	r := chi.NewRouter()
	r.Get("/api/v1/recommendations/{personID}", func(w http.ResponseWriter, r *http.Request) {
		label = routePattern(r)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/STU0001", nil))
	if label != "/api/v1/recommendations/{personID}" {
		t.Errorf("label = %q", label)
	}

	if got := routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)); got != unmatchedEndpoint {
		t.Errorf("label without router = %q", got)
	}
}

func TestPrometheusMetricsPassesStatus(t *testing.T) {
	h := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable || rec.Body.String() != "down" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatusWriterFirstCodeWins(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusInternalServerError)
	if sw.statusCode != http.StatusNotFound {
		t.Errorf("status = %d", sw.statusCode)
	}

	sw = &statusWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	_, _ = sw.Write([]byte("x"))
	sw.WriteHeader(http.StatusTeapot)
	if sw.statusCode != http.StatusOK {
		t.Errorf("status after implicit 200 = %d", sw.statusCode)
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewTestLogger(&buf)
	prev := logging.Logger()
	logging.SetLogger(logger)
	t.Cleanup(func() { logging.SetLogger(prev) })

	h := RequestID(AccessLog(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil))

	out := buf.String()
	for _, want := range []string{"request completed", `"status":502`, `"method":"POST"`, "/api/v1/admin/refresh"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestCompression(t *testing.T) {
	payload := strings.Repeat(`{"opportunity_id":"INT0001","score":0.5}`, 50)
	h := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	})

	t.Run("gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		rec := httptest.NewRecorder()
		h(rec, req)

		if rec.Header().Get("Content-Encoding") != "gzip" {
			t.Fatal("expected gzip encoding")
		}
		zr, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(zr)
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != payload {
			t.Error("decompressed body differs")
		}
	})

	t.Run("gzip not accepted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != payload {
			t.Error("expected identity response")
		}
	})
}
