package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-rapla/framework/container"
	"github.com/km-arc/go-rapla/framework/http/validation"
	gohttp "github.com/km-arc/go-rapla/http"
	"github.com/km-arc/go-rapla/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

type calendar struct{ Name string }

func (c *calendar) String() string { return "calendar " + c.Name }

type ledger struct{ Entries []string }

func newServer(t *testing.T) (*container.Container, http.Handler) {
	t.Helper()
	c := container.New()
	c.Register("calendar", container.MustComponent(container.Constructor(func() *calendar { return &calendar{Name: "rooms"} })), container.WithHint("rooms"))
	c.Register("calendar", container.MustComponent(container.Injectable(func() (*calendar, error) { return nil, errors.New("offline") }), container.WithName("broken")), container.WithHint("broken"))

	r := routing.New(zap.NewNop())
	gohttp.NewInspector(c, zap.NewNop()).Routes(r)
	return c, r
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return rr, body
}

// ── Inspector ─────────────────────────────────────────────────────────────────

func TestInspector_ListRoles(t *testing.T) {
	_, h := newServer(t)

	rr, body := get(t, h, "/roles/")
	require.Equal(t, http.StatusOK, rr.Code)

	roles := body["data"].([]any)
	var names []string
	for _, r := range roles {
		names = append(names, r.(map[string]any)["role"].(string))
	}
	assert.Contains(t, names, "calendar")
	assert.Contains(t, names, container.RoleOf[container.Container]())
}

func TestInspector_ShowRole(t *testing.T) {
	_, h := newServer(t)

	rr, body := get(t, h, "/roles/calendar")
	require.Equal(t, http.StatusOK, rr.Code)

	data := body["data"].(map[string]any)
	hints := data["hints"].([]any)
	require.Len(t, hints, 2)
	first := hints[0].(map[string]any)
	assert.Equal(t, "rooms", first["hint"])
	assert.Equal(t, true, first["default"])
	assert.Equal(t, "broken", hints[1].(map[string]any)["component"])
}

func TestInspector_ShowRole_NotFound(t *testing.T) {
	_, h := newServer(t)

	rr, body := get(t, h, "/roles/nothing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, body["message"], "nothing")
}

func TestInspector_Instance(t *testing.T) {
	_, h := newServer(t)

	rr, body := get(t, h, "/roles/calendar/instance")
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "*http_test.calendar", data["type"])
	assert.Equal(t, "calendar rooms", data["description"])

	rr, body = get(t, h, "/roles/calendar/instance?hint=broken")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, body["message"], "offline")

	rr, _ = get(t, h, "/roles/calendar/instance?hint=missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ── Response ──────────────────────────────────────────────────────────────────

func TestResponse_Success(t *testing.T) {
	rr := httptest.NewRecorder()
	gohttp.NewResponse(rr).Success(map[string]any{"id": 1})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":1}}`, rr.Body.String())
}

func TestResponse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		send   func(*gohttp.Response)
		status int
		body   string
	}{
		{"not found default", func(r *gohttp.Response) { r.NotFound() }, http.StatusNotFound, `{"message":"Not found."}`},
		{"server error custom", func(r *gohttp.Response) { r.ServerError("cycle") }, http.StatusInternalServerError, `{"message":"cycle"}`},
		{"error", func(r *gohttp.Response) { r.Error(http.StatusConflict, "taken") }, http.StatusConflict, `{"message":"taken"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.send(gohttp.NewResponse(rr))
			assert.Equal(t, tt.status, rr.Code)
			assert.JSONEq(t, tt.body, rr.Body.String())
		})
	}
}

func TestInspector_RejectsMalformedAddresses(t *testing.T) {
	_, h := newServer(t)

	rr, body := get(t, h, "/roles/9lives")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	bag := body["errors"].(map[string]any)
	assert.Contains(t, bag, "role")

	rr, body = get(t, h, "/roles/calendar/instance?hint=a%2Fb")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, body["errors"].(map[string]any), "hint")
}

func TestRequest_Input(t *testing.T) {
	r := routing.New(zap.NewNop())
	var got map[string]string
	r.Get("/roles/{role}", func(w http.ResponseWriter, req *http.Request) {
		got = gohttp.NewRequest(req).Input()
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/roles/calendar?hint=rooms&role=ignored", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, map[string]string{"role": "calendar", "hint": "rooms"}, got)
}

func TestResponse_ValidationError(t *testing.T) {
	rr := httptest.NewRecorder()
	v := validation.Make(map[string]string{}, validation.Rules{"role": "required"})
	require.True(t, v.Fails())
	gohttp.NewResponse(rr).ValidationError(v.Errors())

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"errors":{"role":["The role field is required."]}}`, rr.Body.String())
}

func TestInspector_Instance_OnlyStringerDescribed(t *testing.T) {
	c, h := newServer(t)
	c.RegisterInstance("ledger", &ledger{Entries: []string{"secret"}})

	rr, body := get(t, h, "/roles/ledger/instance")
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "*http_test.ledger", data["type"])
	assert.NotContains(t, data, "description")
	for _, v := range data {
		assert.NotContains(t, v, "secret")
	}
}
