package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/logger"
	"hvac-backend/pkg/utils"
)

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.For("http").WithFields(map[string]interface{}{
					"request_id": utils.RequestIDFromContext(r.Context()),
					"path":       r.URL.Path,
					"stack":      string(debug.Stack()),
				}).Errorf("panic recovered: %v", rec)

				utils.Error(w, r, apperr.Wrap(apperr.CodeInternal, "internal server error", fmt.Errorf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
