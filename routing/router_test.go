package routing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-rapla/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── Routes ────────────────────────────────────────────────────────────────────

func TestRouter_Get(t *testing.T) {
	r := routing.New(zap.NewNop())
	r.Get("/hello", okHandler)

	if rr := do(t, r, http.MethodGet, "/hello"); rr.Code != http.StatusOK {
		t.Errorf("GET /hello: got %d want 200", rr.Code)
	}
	if rr := do(t, r, http.MethodPost, "/hello"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /hello: got %d want 405", rr.Code)
	}
}

func TestRouter_Prefix_And_Param(t *testing.T) {
	r := routing.New(nil)
	var got string
	r.Prefix("/roles", func(sub *routing.Router) {
		sub.Get("/{role}", func(w http.ResponseWriter, req *http.Request) {
			got = routing.Param(req, "role")
			w.WriteHeader(http.StatusOK)
		})
	})

	rr := do(t, r.Handler(), http.MethodGet, "/roles/org.rapla.Resources")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200", rr.Code)
	}
	if got != "org.rapla.Resources" {
		t.Errorf("param: got %q", got)
	}
}

func TestRouter_Middleware(t *testing.T) {
	r := routing.New(nil)
	r.Middleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Container", "rapla")
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/", okHandler)

	if h := do(t, r, http.MethodGet, "/").Header().Get("X-Container"); h != "rapla" {
		t.Errorf("X-Container: got %q", h)
	}
}

func TestRouter_RecoversAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := routing.New(zap.New(core))
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	if rr := do(t, r, http.MethodGet, "/panic"); rr.Code != http.StatusInternalServerError {
		t.Errorf("got %d want 500", rr.Code)
	}
	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d requests, want 1", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/panic" {
		t.Errorf("path: got %v", entries[0].ContextMap()["path"])
	}
}
