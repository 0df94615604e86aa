package middleware

import (
	"net/http"

	"github.com/google/uuid"

	appctx "github.com/bookme/auth-service/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID propagates an incoming X-Request-Id or mints a fresh UUID, echoes
// it on the response and stores it in the request context for log and error
// correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderXRequestID, id)
		next.ServeHTTP(w, r.WithContext(appctx.WithRequestID(r.Context(), id)))
	})
}
