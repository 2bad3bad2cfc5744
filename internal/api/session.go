package api

import (
	"context"
	"net/http"

	"github.com/ziadkadry99/csvstats/internal/state"
)

// SessionCookie names the cookie carrying the session id. It has no
// expiry, so the session ends when the browser session does.
const SessionCookie = "csvstats_session"

type ctxKey struct{}

// session attaches the caller's state store to the request context,
// starting a new session for unknown or expired ids.
func (a *API) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var store *state.Store
		if c, err := r.Cookie(SessionCookie); err == nil {
			store, _ = a.registry.Get(c.Value)
		}
		if store == nil {
			var id string
			id, store = a.registry.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// storeFrom returns the session store attached by the session middleware.
func storeFrom(ctx context.Context) *state.Store {
	store, _ := ctx.Value(ctxKey{}).(*state.Store)
	return store
}
