package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestWriteSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusAccepted, map[string]string{"mode": "background"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "2.0", body["apiVersion"])
	assert.Contains(t, body, "data")
	assert.NotContains(t, body, "error")
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
		wantReason string
	}{
		{"invalid input", fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput), http.StatusBadRequest, "INVALID_ARGUMENT", "invalidInput"},
		{"not found", fmt.Errorf("%w: no row", usecase.ErrNotFound), http.StatusNotFound, "NOT_FOUND", "notFound"},
		{"conflict", fmt.Errorf("%w: busy", usecase.ErrConflict), http.StatusConflict, "ABORTED", "syncInProgress"},
		{"rate limited", crerr.Mark(errors.New("429 from provider"), usecase.ErrRateLimited), http.StatusServiceUnavailable, "UNAVAILABLE", "providerRateLimited"},
		{"transient", crerr.Mark(errors.New("502 from provider"), usecase.ErrTransientHTTP), http.StatusBadGateway, "UNAVAILABLE", "providerUnavailable"},
		{"unmapped", errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL", "internalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(context.Background(), rec, tt.err)

			require.Equal(t, tt.wantCode, rec.Code)
			errObj, ok := decodeEnvelope(t, rec)["error"].(map[string]any)
			require.True(t, ok, "expected error object")
			assert.Equal(t, tt.wantStatus, errObj["status"])
			items, _ := errObj["errors"].([]any)
			require.Len(t, items, 1)
			item, _ := items[0].(map[string]any)
			assert.Equal(t, tt.wantReason, item["reason"])
			assert.Equal(t, errorDomain, item["domain"])
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("pq: password authentication failed"))

	errObj, _ := decodeEnvelope(t, rec)["error"].(map[string]any)
	assert.Equal(t, internalErrorMessage, errObj["message"])
}

func TestWriteError_IncludesTraceID(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	rec := httptest.NewRecorder()
	writeError(ctx, rec, fmt.Errorf("%w: nope", usecase.ErrNotFound))

	errObj, _ := decodeEnvelope(t, rec)["error"].(map[string]any)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", errObj["traceId"])
}

func TestStartSpan_OnlyHandlersGetChildSpans(t *testing.T) {
	ctx, span := startSpan(context.Background(), "httpapi.Handler.RunSyncJob")
	defer span.End()
	if trace.SpanFromContext(ctx).SpanContext().IsValid() {
		t.Fatalf("expected no span without a request span")
	}
}
