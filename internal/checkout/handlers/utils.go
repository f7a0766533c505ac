package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"go-checkout/internal/checkout/analytics"
	"go-checkout/pkg/logging"

	"go.uber.org/zap"
)

const internalErrorMessage = "An internal server error occurred."

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func closeBody(ctx context.Context, body io.ReadCloser, logger *logging.ZapLogger) {
	err := body.Close()
	if err != nil {
		logger.ErrorCtx(ctx, "failed to close body", zap.Error(err))
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	err := json.NewDecoder(r).Decode(&out)
	return out, err
}

func writeJSON(ctx context.Context, w http.ResponseWriter, logger *logging.ZapLogger, status int, body any) {
	res, err := json.Marshal(body)
	if err != nil {
		logger.ErrorCtx(ctx, "error marshalling response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(res); err != nil {
		logger.ErrorCtx(ctx, "error writing response", zap.Error(err))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, logger *logging.ZapLogger, status int, resp errorResponse) {
	writeJSON(ctx, w, logger, status, resp)
}

func writeText(ctx context.Context, w http.ResponseWriter, logger *logging.ZapLogger, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, text); err != nil {
		logger.ErrorCtx(ctx, "error writing response", zap.Error(err))
	}
}

// rawDetails keeps a provider JSON body as JSON in our response.
func rawDetails(raw string) any {
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	return raw
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func clientFromRequest(r *http.Request) analytics.Client {
	return analytics.Client{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	}
}
