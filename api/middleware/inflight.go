package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/gasdrop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

const defaultInFlightTTL = 30 * time.Second

// InFlightStore is the Redis surface the guard needs.
type InFlightStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	InFlightKey(userID, method, path string) string
}

// InFlight rejects a request while an identical one (same user, method and
// path) is still being handled. The guard is released when the handler
// returns; ttl bounds it if the process dies first.
func InFlight(store InFlightStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultInFlightTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := store.InFlightKey(userID, r.Method, r.URL.Path)
			acquired, err := store.SetNX(r.Context(), key, "1", ttl)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "in-flight guard"))
				return
			}
			if !acquired {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request already in progress"))
				return
			}
			defer func() {
				if delErr := store.Del(context.WithoutCancel(r.Context()), key); delErr != nil {
					logError(r.Context(), logg, "release in-flight guard", delErr)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
