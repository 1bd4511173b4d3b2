package handler

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static/*.js
var staticFS embed.FS

// staticHandler serves the embedded client scripts under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	files := http.FileServerFS(sub)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The route may sit under a base path; serve by the wildcard alone.
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/" + chi.URLParam(r, "*")
		r2.URL.RawPath = ""
		files.ServeHTTP(w, r2)
	})
}
