package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{
			name:           "exact match",
			origin:         "https://rjgems.com",
			allowedOrigins: []string{"https://rjgems.com"},
			want:           true,
		},
		{
			name:           "wildcard match",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches first",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*", "https://rjgems.com"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches second",
			origin:         "https://rjgems.com",
			allowedOrigins: []string{"http://localhost:*", "https://rjgems.com"},
			want:           true,
		},
		{
			name:           "bare star allows everything",
			origin:         "https://preview.rjgems.dev",
			allowedOrigins: []string{"*"},
			want:           true,
		},
		{
			name:           "no match",
			origin:         "http://evil.com",
			allowedOrigins: []string{"http://localhost:*"},
			want:           false,
		},
		{
			name:           "empty origin",
			origin:         "",
			allowedOrigins: []string{"*"},
			want:           false,
		},
		{
			name:           "empty allowed list",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{},
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowedOrigins)
			if got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantCORS   bool
	}{
		{"allowed origin - GET request", "http://localhost:5173", "GET", http.StatusOK, true},
		{"allowed origin - OPTIONS request", "http://localhost:5173", "OPTIONS", http.StatusNoContent, true},
		{"disallowed origin", "http://evil.com", "GET", http.StatusOK, false},
		{"no origin header", "", "GET", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware([]string{"http://localhost:*"}))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				if corsHeader != tt.origin {
					t.Errorf("Access-Control-Allow-Origin = %s, want %s", corsHeader, tt.origin)
				}
				if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
					t.Errorf("Access-Control-Allow-Credentials not set to true")
				}
				if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), requestIDHeader) {
					t.Errorf("Access-Control-Allow-Headers should include %s", requestIDHeader)
				}
			} else if corsHeader != "" {
				t.Errorf("Access-Control-Allow-Origin should not be set, got %s", corsHeader)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		id := w.Header().Get(requestIDHeader)
		if len(id) != 36 {
			t.Errorf("generated id = %q, want a uuid", id)
		}
		if w.Body.String() != id {
			t.Errorf("context id = %q, header id = %q", w.Body.String(), id)
		}
	})

	t.Run("reuses the caller's id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(requestIDHeader, "checkout-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get(requestIDHeader); got != "checkout-42" {
			t.Errorf("id = %q, want checkout-42", got)
		}
	})

	t.Run("replaces oversized ids", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(requestIDHeader, strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get(requestIDHeader); len(got) != 36 {
			t.Errorf("id = %q, want a fresh uuid", got)
		}
	})
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggerMiddleware(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/broken", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, path := range []string{"/ok", "/missing", "/broken"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}

	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, entry := range entries {
		if entry.Level != wantLevels[i] {
			t.Errorf("entry %d level = %v, want %v", i, entry.Level, wantLevels[i])
		}
		fields := entry.ContextMap()
		if fields["request_id"] == "" {
			t.Errorf("entry %d has no request id", i)
		}
	}
	if got := entries[1].ContextMap()["status"]; got != int64(http.StatusNotFound) {
		t.Errorf("status field = %v, want 404", got)
	}
}

func TestRecoveryMiddleware_LogsPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(RecoveryMiddleware(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic should be logged once")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("limits per client ip", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimitMiddleware(2))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		send := func(ip string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = ip + ":12345"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		for i := 0; i < 2; i++ {
			if w := send("10.0.0.1"); w.Code != http.StatusOK {
				t.Fatalf("request %d: Status = %d, want 200", i, w.Code)
			}
		}

		w := send("10.0.0.1")
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("Status = %d, want 429", w.Code)
		}
		if w.Header().Get("Retry-After") != "30" {
			t.Errorf("Retry-After = %q, want 30", w.Header().Get("Retry-After"))
		}

		if w := send("10.0.0.2"); w.Code != http.StatusOK {
			t.Errorf("other client: Status = %d, want 200", w.Code)
		}
	})

	t.Run("disabled when not positive", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimitMiddleware(0))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 50; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("request %d: Status = %d, want 200", i, w.Code)
			}
		}
	})
}

func TestIPRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newIPRateLimiter(10, time.Minute)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")
	if rl.size() != 2 {
		t.Fatalf("size = %d, want 2", rl.size())
	}

	now = now.Add(2 * time.Minute)
	rl.allow("10.0.0.3")
	if rl.size() != 1 {
		t.Errorf("size = %d, want 1 after idle clients are swept", rl.size())
	}
}
