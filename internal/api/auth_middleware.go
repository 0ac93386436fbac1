package api

import (
	"net/http"

	"github.com/taskhub-io/taskhub/internal/auth"
	"github.com/taskhub-io/taskhub/internal/models"
)

// TokenAuthMiddleware resolves the bearer token and stores its owner in the
// request context. Unresolvable requests stop here with 401.
func (api *Api) TokenAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := auth.BearerToken(r)
		if secret == "" {
			handleError(w, r, auth.ErrUnauthenticated, "")
			return
		}

		user, err := api.auth.Resolve(r.Context(), secret)
		if err != nil {
			handleError(w, r, err, "")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// currentUser returns the user set by TokenAuthMiddleware
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		handleError(w, r, auth.ErrUnauthenticated, "")
		return nil, false
	}
	return user, true
}
