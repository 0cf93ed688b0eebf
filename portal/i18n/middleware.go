package i18n

import (
	"context"
	"net/http"
)

type storeContextKey struct{}

func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// FromContext returns the request's Store, or nil outside Middleware.
func FromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(storeContextKey{}).(*Store)
	return store
}

// T translates with the request's Store, echoing key when there is none.
func T(ctx context.Context, key string, params map[string]string) string {
	if store := FromContext(ctx); store != nil {
		return store.T(key, params)
	}
	return key
}

// Middleware attaches a Store for the resolved language to each request.
func (b *Bundle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang, fromQuery := Resolve(r, b.registry)
		store := b.NewStore(lang, CookiePersister{W: w})
		w.Header().Set("Content-Language", store.DocumentLang())
		if fromQuery {
			_ = store.SetLanguage(lang)
		}
		next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), store)))
	})
}
