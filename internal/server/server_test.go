package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecalc/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Env:       "test",
		Addr:      "127.0.0.1:0",
		ExprName:  "checkedExpr",
		CacheSize: 8,
	}
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEval(t *testing.T, rec *httptest.ResponseRecorder) EvalResponse {
	t.Helper()
	var resp EvalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestEval(t *testing.T) {
	h := New(testConfig()).Handler()

	tests := []struct {
		name   string
		req    EvalRequest
		status int
		value  string
		kind   string
	}{
		{"Sum", EvalRequest{Expr: "uint64(1) + 2 + 3"}, http.StatusOK, "6", "uint64"},
		{"Variables", EvalRequest{Expr: "x * y", Vars: []string{"x:int16=300", "y:int16=100"}}, http.StatusOK, "30000", "int16"},
		{"Decimal", EvalRequest{Expr: "p * 3", Vars: []string{"p:decimal=0.1"}}, http.StatusOK, "0.3", "decimal"},
		{"Comparison", EvalRequest{Expr: "x + 1 > 1", Vars: []string{"x=1"}}, http.StatusOK, "true", "bool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/v1/eval", tt.req)
			assert.Equal(t, tt.status, rec.Code)

			resp := decodeEval(t, rec)
			assert.True(t, resp.OK)
			assert.Equal(t, tt.value, resp.Value)
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}
}

func TestEvalFailure(t *testing.T) {
	h := New(testConfig()).Handler()

	rec := post(t, h, "/v1/eval", EvalRequest{
		Expr: "x + 1 + 1",
		Vars: []string{"x:uint64=18446744073709551614"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, false, raw["ok"])

	errBody := raw["error"].(map[string]any)
	assert.Equal(t, "x + 1 + 1", errBody["expr"])
	assert.Equal(t, float64(7), errBody["op_ix"])
	assert.Equal(t, float64(1), errBody["op_len"])
	assert.Equal(t, "x + 1 ", errBody["prefix"])
	assert.Equal(t, "+", errBody["operator"])
	assert.Equal(t, " 1", errBody["suffix"])
	assert.Equal(t, "Failure in: x + 1  》+《  1", errBody["message"])
}

func TestEvalLeadingNegationReportsZero(t *testing.T) {
	h := New(testConfig()).Handler()

	rec := post(t, h, "/v1/eval", EvalRequest{Expr: "-math.MinInt64"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	errBody := raw["error"].(map[string]any)
	assert.Equal(t, float64(0), errBody["op_ix"])
	assert.Empty(t, errBody["prefix"])
	assert.Equal(t, "-", errBody["operator"])
}

func TestEvalBadRequests(t *testing.T) {
	h := New(testConfig()).Handler()

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"Malformed JSON", `{"expr":`, "invalid JSON body"},
		{"Unknown Field", `{"expression":"1"}`, "invalid JSON body"},
		{"Syntax", EvalRequest{Expr: "1 +"}, "cannot parse"},
		{"Bad Variable", EvalRequest{Expr: "x", Vars: []string{"x:uint8=256"}}, "out of range"},
		{"Undefined", EvalRequest{Expr: "y + 1"}, "undefined variable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/v1/eval", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decodeEval(t, rec)
			assert.False(t, resp.OK)
			require.NotNil(t, resp.Error)
			assert.Contains(t, resp.Error.Message, tt.message)
			assert.Nil(t, resp.Error.OpIx)
		})
	}
}

func TestRewrite(t *testing.T) {
	h := New(testConfig()).Handler()

	rec := post(t, h, "/v1/rewrite", RewriteRequest{Expr: "a << 2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Canonical string `json:"canonical"`
		Rewritten string `json:"rewritten"`
		Sites     []struct {
			Op    string `json:"op"`
			OpIx  int    `json:"op_ix"`
			OpLen int    `json:"op_len"`
		} `json:"sites"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a << 2", resp.Canonical)
	assert.Equal(t, "checked.ShlAt(a, 2, checked.At(checkedExpr, 4, 2))", resp.Rewritten)
	require.Len(t, resp.Sites, 1)
	assert.Equal(t, "<<", resp.Sites[0].Op)
	assert.Equal(t, 4, resp.Sites[0].OpIx)

	own := ""
	rec = post(t, h, "/v1/rewrite", RewriteRequest{Expr: "a ^ b", Qualifier: &own, KeepXor: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sites":[]`)
	assert.Contains(t, rec.Body.String(), `"rewritten":"a ^ b"`)
}

func TestHealthAndMetrics(t *testing.T) {
	h := New(testConfig()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	post(t, h, "/v1/eval", EvalRequest{Expr: "1 + 1"})

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "safecalc_evaluations_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitWindow = time.Minute
	h := New(cfg).Handler()

	assert.Equal(t, http.StatusOK, post(t, h, "/v1/eval", EvalRequest{Expr: "1 + 1"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, h, "/v1/eval", EvalRequest{Expr: "1 + 1"}).Code)
}

func TestBlockedIP(t *testing.T) {
	cfg := testConfig()
	cfg.Blocked = []string{"192.0.2.1"}
	h := New(cfg).Handler()

	// httptest requests come from 192.0.2.1.
	assert.Equal(t, http.StatusForbidden, post(t, h, "/v1/eval", EvalRequest{Expr: "1 + 1"}).Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(testConfig()).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
