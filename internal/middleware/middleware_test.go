package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/models"
)

type ping struct{}

func newToken(t *testing.T, m *auth.JWTManager) string {
	t.Helper()
	token, err := m.Generate(&models.User{ID: "user-1", Email: "cook@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return token
}

// captureUser is a terminal handler recording the user the interceptors saw.
func captureUser(seen *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*seen = GetUserID(ctx)
		return connect.NewResponse(&ping{}), nil
	}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token := newToken(t, jwtManager)

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUser string
	}{
		{name: "valid bearer", header: "Bearer " + token, wantUser: "user-1"},
		{name: "token scheme", header: "Token " + token, wantUser: "user-1"},
		{name: "missing header", wantCode: connect.CodeUnauthenticated},
		{name: "garbage token", header: "Bearer nope", wantCode: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, wantCode: connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			req := connect.NewRequest(&ping{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			_, err := RequireAuth(jwtManager)(captureUser(&seen))(context.Background(), req)
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("expected %v, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen != tt.wantUser {
				t.Errorf("user: expected %q, got %q", tt.wantUser, seen)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token := newToken(t, jwtManager)

	for header, want := range map[string]string{
		"":                 "",
		"Bearer " + token:  "user-1",
		"Bearer forged.jw": "",
	} {
		var seen string
		req := connect.NewRequest(&ping{})
		if header != "" {
			req.Header().Set("Authorization", header)
		}
		if _, err := OptionalAuth(jwtManager)(captureUser(&seen))(context.Background(), req); err != nil {
			t.Fatalf("header %q: unexpected error: %v", header, err)
		}
		if seen != want {
			t.Errorf("header %q: expected user %q, got %q", header, want, seen)
		}
	}
}

func TestRequireAuthHTTP(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	handler := RequireAuthHTTP(jwtManager, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, GetUserID(r.Context())+" "+GetEmail(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/download", nil)
	req.Header.Set("Authorization", "Bearer "+newToken(t, jwtManager))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated: expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "user-1 cook@example.com" {
		t.Errorf("expected user-1 and email in context, got %q", rec.Body.String())
	}
}

func TestMetricsInterceptor(t *testing.T) {
	m := NewMetrics()
	ok := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	}
	missing := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("gone"))
	}

	ctx := context.Background()
	m.Interceptor()(ok)(ctx, connect.NewRequest(&ping{}))
	m.Interceptor()(ok)(ctx, connect.NewRequest(&ping{}))
	m.Interceptor()(missing)(ctx, connect.NewRequest(&ping{}))

	// Requests built outside a handler carry an empty procedure.
	if got := testutil.ToFloat64(m.rpcs.WithLabelValues("", "ok")); got != 2 {
		t.Errorf("ok count: expected 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.rpcs.WithLabelValues("", "not_found")); got != 1 {
		t.Errorf("not_found count: expected 1, got %v", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveDownload("pdf", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `foodgram_shopping_list_downloads_total{format="pdf",outcome="ok"} 1`) {
		t.Errorf("download counter missing from exposition:\n%s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	if called {
		t.Error("preflight should not reach the wrapped handler")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}
