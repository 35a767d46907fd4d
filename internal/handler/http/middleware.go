package http

import (
	"net/http"
	"strings"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ContentTypeJSON rejects requests carrying a body that is not declared as
// JSON. Bodyless PUTs such as /pay are let through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func viewerFromRequest(r *http.Request) service.Viewer {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return service.Viewer{}
	}
	return service.Viewer{UserID: claims.UserID, IsAdmin: claims.IsAdmin()}
}
