package service

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zephyrtronium/formulas"
	"github.com/zephyrtronium/formulas/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T, mod func(*config.ServerConfig)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	if mod != nil {
		mod(&cfg.Server)
	}
	return New(cfg.Server, cfg.Eval, zap.NewNop())
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) formulas.Result {
	t.Helper()
	var r formulas.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func TestCalculate(t *testing.T) {
	h := newServer(t, nil).Handler()
	rec := post(t, h, `{"formula":"((current_reading - previous_reading) * rate) * (1 + vat)","variables":{"current_reading":1200,"previous_reading":1000,"rate":63.88,"vat":0.075}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	n, ok := decode(t, rec).Number()
	require.True(t, ok)
	assert.InDelta(t, 13734.2, n, 1e-9)
}

func TestCalculate_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"division", `{"formula":"a / b","variables":{"a":1,"b":0}}`, "division by zero"},
		{"unset", `{"formula":"a + b","variables":{"a":1,"b":null}}`, `undefined variable: "b"`},
		{"syntax", `{"formula":"a +","variables":{"a":1}}`, ""},
		{"empty", `{"formula":"","variables":{}}`, ""},
	}
	h := newServer(t, nil).Handler()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := post(t, h, c.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			r := decode(t, rec)
			_, ok := r.Number()
			assert.False(t, ok)
			assert.NotEmpty(t, r.Message())
			if c.msg != "" {
				assert.Contains(t, r.Message(), c.msg)
			}
		})
	}
}

func TestCalculate_Malformed(t *testing.T) {
	h := newServer(t, nil).Handler()
	rec := post(t, h, `{"formula":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Message(), "invalid request")
}

func TestCalculate_TooLarge(t *testing.T) {
	h := newServer(t, func(c *config.ServerConfig) { c.MaxBodyBytes = 32 }).Handler()
	rec := post(t, h, `{"formula":"`+strings.Repeat("a + ", 32)+`a","variables":{"a":1}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, decode(t, rec).Message(), "exceeds 32 bytes")
}

func TestCalculate_WrongMethod(t *testing.T) {
	h := newServer(t, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calculate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTemplates(t *testing.T) {
	h := newServer(t, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []formulas.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	want := formulas.Templates()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Formula, got[i].Formula)
		assert.True(t, want[i].Vars.Equal(got[i].Vars), "variables of %s", want[i].Name)
	}
}

func TestHealth(t *testing.T) {
	h := newServer(t, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"any", []string{"*"}, "http://example.com", "*"},
		{"listed", []string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000"},
		{"unlisted", []string{"http://localhost:3000"}, "http://example.com", ""},
		{"none", nil, "http://example.com", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newServer(t, func(s *config.ServerConfig) { s.AllowedOrigins = c.allowed }).Handler()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", c.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, c.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := newServer(t, nil).Handler()
	req := httptest.NewRequest(http.MethodOptions, "/calculate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := config.DefaultConfig()
	h := New(cfg.Server, cfg.Eval, zap.New(core)).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc-123", fields["request_id"])
	assert.Equal(t, "/health", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := newServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	http.DefaultClient.CloseIdleConnections()
}

func TestListenAndServe_BadAddr(t *testing.T) {
	s := newServer(t, func(c *config.ServerConfig) { c.Addr = "not an address" })
	err := s.ListenAndServe(context.Background())
	assert.ErrorContains(t, err, "failed to listen")
}
