package handlers

import (
	"net/http"

	"go-checkout/pkg/jwtfactory"
	"go-checkout/pkg/logging"

	"github.com/go-chi/jwtauth/v5"
)

func MethodNotAllowed(logger *logging.ZapLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, logger, http.StatusMethodNotAllowed, errorResponse{Error: "Method Not Allowed"})
	}
}

// OperatorAuthenticator admits requests whose verified token carries the operator role.
func OperatorAuthenticator(logger *logging.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, claims, err := jwtauth.FromContext(ctx)
			if err != nil || token == nil || claims[jwtfactory.RoleClaimName] != jwtfactory.OperatorRole {
				logger.DebugCtx(ctx, "operator token rejected")
				writeError(ctx, w, logger, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
