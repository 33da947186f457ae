package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.connectwisedev.com/pos-service/pkg/pos"
)

func newLoggedHandler(buf *bytes.Buffer) *Handler {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &Handler{logger: logger}
}

func TestWriteError_ClientErrorsCarryTopLevelMessage(t *testing.T) {
	h := newLoggedHandler(&bytes.Buffer{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)

	h.writeError(rec, req, &pos.Error{Kind: pos.KindProductNotFound, Message: "Product p1 not found"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t,
		`{"message":"Product p1 not found","error":{"message":"Product p1 not found","status":404}}`,
		rec.Body.String())
}

func TestWriteError_InternalErrorsHideCause(t *testing.T) {
	var logs bytes.Buffer
	h := newLoggedHandler(&logs)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)

	h.writeError(rec, req, errors.New("dial tcp 10.0.0.5:27017: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "message")
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, logs.String(), "connection refused")
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := httptest.NewRecorder()

	writeJSON(rec, logger, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "response_encode_failed")
}
