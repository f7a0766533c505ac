package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-checkout/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewFromZap(zap.New(core))
	handler := NewLoggerContext().CreateHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoCtx(r.Context(), "inside")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-bill", nil))

	requestID := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, requestID)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, requestID, fields["request-id"])
	assert.Equal(t, "/api/create-bill", fields["path"])
	assert.Equal(t, http.MethodPost, fields["method"])
}

func TestLoggerContextKeepsIncomingRequestID(t *testing.T) {
	handler := NewLoggerContext().CreateHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestPanicRecover(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewPanicRecover(logging.NewFromZap(zap.New(core))).CreateHandler(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment-callback", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic in HTTP handler").Len())
}
