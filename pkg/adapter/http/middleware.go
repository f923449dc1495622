package http

import (
	"context"
	"net/http"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

type contextKey string

const callerKey contextKey = "caller"

// identify resolves the X-Token header into a caller identity stored on
// the request context. With required set, requests without a valid session
// are rejected with 401; otherwise they proceed as Anonymous.
func (a *HTTPAdapter) identify(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := drive.Anonymous

			if token := r.Header.Get("X-Token"); token != "" {
				user, ok, err := a.sessions.Resolve(r.Context(), token)
				if err != nil {
					logger.Error("Session lookup failed: %v", err)
					writeError(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				if ok {
					caller = user
				}
			}

			if required && caller == drive.Anonymous {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerFrom returns the identity placed by identify, or Anonymous when
// the middleware did not run.
func callerFrom(r *http.Request) metadata.UserID {
	if caller, ok := r.Context().Value(callerKey).(metadata.UserID); ok {
		return caller
	}
	return drive.Anonymous
}
