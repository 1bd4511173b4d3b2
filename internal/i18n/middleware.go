package i18n

import "net/http"

// Middleware injects a localizer into every request context. The language is
// taken from the "lang" query parameter, then Accept-Language, then the
// server default. When negotiate is false the server default is always used.
func Middleware(negotiate bool) func(http.Handler) http.Handler {
	fixed := NewLocalizer(defaultLang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := fixed
			if negotiate {
				lang := Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
				loc = NewLocalizer(lang)
			}
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
