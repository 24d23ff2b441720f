package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupProductionLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter("production", &buf)
	t.Cleanup(func() { SetupWriter("test", &bytes.Buffer{}) })

	Log.Debug("hidden")
	Log.Info("evaluated", "expr", "x + 1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "evaluated", entry["msg"])
	assert.Equal(t, "x + 1", entry["expr"])
}

func TestMiddlewareLevels(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter("development", &buf)
	t.Cleanup(func() { SetupWriter("test", &bytes.Buffer{}) })

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/eval", nil))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=422")
	assert.Contains(t, out, "path=/v1/eval")
}
