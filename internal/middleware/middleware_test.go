package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/surveyapi/internal/auth"
	"github.com/mmynk/surveyapi/internal/metrics"
	"github.com/mmynk/surveyapi/internal/models"
	"github.com/mmynk/surveyapi/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubUsers map[string]*models.User

func (s stubUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if email == "broken@x.com" {
		return nil, errors.New("database is on fire")
	}
	if u, ok := s[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"Bearer: abc.def.ghi", "abc.def.ghi", nil},
		{"", "", auth.ErrMissingToken},
		{"abc.def.ghi", "", auth.ErrMalformedToken},
		{"Bearer a b", "", auth.ErrMalformedToken},
		{"Bearer ", "", auth.ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	issued := time.Now()
	tokens := auth.NewTokenManager("test-secret", 30*time.Minute)
	users := stubUsers{"a@x.com": {ID: 1, Email: "a@x.com"}}

	valid, _ := tokens.Generate("a@x.com")
	ghost, _ := tokens.Generate("ghost@x.com")
	broken, _ := tokens.Generate("broken@x.com")
	expired, _ := auth.NewTokenManager("test-secret", time.Minute,
		auth.WithClock(func() time.Time { return issued.Add(-time.Hour) })).Generate("a@x.com")

	var rejected []string
	protected := RequireAuth(tokens, users, discard, func(reason string) {
		rejected = append(rejected, reason)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		JSONResponse(w, http.StatusOK, map[string]any{"email": user.Email})
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantReason string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "missing"},
		{"three parts", "Bearer " + valid + " extra", http.StatusUnauthorized, "invalid"},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "invalid"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "expired"},
		{"unknown subject", "Bearer " + ghost, http.StatusUnauthorized, "unknown_user"},
		{"storage failure", "Bearer " + broken, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rejected = nil
			req := httptest.NewRequest(http.MethodPost, "/api/surveys/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusUnauthorized {
				return
			}

			var body models.AuthErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Authenticated {
				t.Error("expected authenticated=false")
			}
			if body.Reason != tt.wantReason {
				t.Errorf("reason: got %q, want %q", body.Reason, tt.wantReason)
			}
			if body.Message == "" {
				t.Error("expected a message")
			}
			if len(rejected) != 1 || rejected[0] != tt.wantReason {
				t.Errorf("onReject calls: %v", rejected)
			}
		})
	}
}

func TestWithLoggingAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	h := WithLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surveys/", nil))

	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(buf.String(), `"status":418`) {
		t.Errorf("status not logged: %s", buf.String())
	}

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		const incoming = "0b8f5d52-7f0c-4d3e-9a51-5c0f1a3e2b11"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", incoming)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen != incoming {
			t.Errorf("got %q, want %q", seen, incoming)
		}
	})
}

func TestRecover(t *testing.T) {
	h := Recover(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom: secret detail")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret detail") {
		t.Error("panic detail leaked to client")
	}
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	m := metrics.New()

	route := Observe(m, "/api/surveys/{$}")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	h := Chain(route, WithLogging(logger), Recover(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surveys/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	if !strings.Contains(logs.String(), `"msg":"request completed"`) || !strings.Contains(logs.String(), `"status":500`) {
		t.Errorf("missing completion log for the panicked request: %s", logs.String())
	}

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `http_requests_total{method="GET",route="/api/surveys/{$}",status="500"} 1`
	if !strings.Contains(scrape.Body.String(), want) {
		t.Errorf("metrics missing %s", want)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/surveys/", nil)
		CORS([]string{"*"})(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status: got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing allow-origin")
		}
	})

	t.Run("allow list", func(t *testing.T) {
		h := CORS([]string{"http://localhost:8080"})(next)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:8080")
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8080" {
			t.Errorf("allowed origin: got %q", got)
		}

		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("foreign origin allowed: %q", got)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, nil)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Limit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/login/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if do("10.0.0.1") != http.StatusOK || do("10.0.0.1") != http.StatusOK {
		t.Fatal("burst should be allowed")
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want 429", code)
	}
	if code := do("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other IP: got %d, want 200", code)
	}

	now = now.Add(30 * time.Second)
	if code := do("10.0.0.1"); code != http.StatusOK {
		t.Errorf("after refill: got %d, want 200", code)
	}

	t.Run("idle visitors are pruned", func(t *testing.T) {
		now = now.Add(time.Hour)
		do("10.0.0.3")
		rl.mu.Lock()
		defer rl.mu.Unlock()
		if len(rl.visitors) != 1 {
			t.Errorf("visitors: got %d, want 1", len(rl.visitors))
		}
	})
}

func TestRateLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(2, nil)
	h := rl.Limit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/login/", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.1.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	if allowed != 2 {
		t.Errorf("allowed: got %d, want 2", allowed)
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.visitors) != 1 {
		t.Errorf("visitors: got %d, want 1", len(rl.visitors))
	}
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		remote  string
		xff     string
		realIP  string
		trusted []netip.Prefix
		want    string
	}{
		{"direct peer", "192.0.2.1:1234", "", "", nil, "192.0.2.1"},
		{"headers ignored without trusted proxies", "192.0.2.1:1234", "203.0.113.5", "198.51.100.7", nil, "192.0.2.1"},
		{"headers ignored from untrusted peer", "192.0.2.1:1234", "203.0.113.5", "", trusted, "192.0.2.1"},
		{"forwarded by trusted proxy", "10.0.0.2:1234", "203.0.113.5", "", trusted, "203.0.113.5"},
		{"rightmost untrusted hop wins", "10.0.0.2:1234", "1.2.3.4, 203.0.113.5, 10.0.0.9", "", trusted, "203.0.113.5"},
		{"all hops trusted", "10.0.0.2:1234", "10.0.0.7, 10.0.0.9", "", trusted, "10.0.0.7"},
		{"garbage hop stops the walk", "10.0.0.2:1234", "not-an-ip", "", trusted, "10.0.0.2"},
		{"real ip from trusted proxy", "10.0.0.2:1234", "", "198.51.100.7", trusted, "198.51.100.7"},
		{"no port", "192.0.2.1", "", "", nil, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(req, tt.trusted); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserve(t *testing.T) {
	m := metrics.New()
	h := Observe(m, "GET /api/surveys/{id}/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/surveys/9/", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `http_requests_total{method="GET",route="GET /api/surveys/{id}/",status="404"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics missing %s", want)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner,handler" {
		t.Errorf("order: %v", order)
	}
}
