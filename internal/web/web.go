// Package web serves the landing page and its static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var content embed.FS

// Static returns the embedded asset tree rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}

	return sub
}

// RegisterRoutes mounts GET / and GET /public/* on router.
func RegisterRoutes(router chi.Router) {
	assets := Static()

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, assets, "index.html")
	})

	router.Handle("/public/*", http.StripPrefix("/public/", http.FileServerFS(assets)))
}
