//go:build !dev

package resources

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"net/http"
	"strings"
	"sync"
)

//go:embed static/*
var staticFS embed.FS

var versions sync.Map // asset name -> short content hash

// assetVersion hashes the embedded file once. Unknown assets have no version.
func assetVersion(name string) string {
	if v, ok := versions.Load(name); ok {
		return v.(string)
	}
	b, err := staticFS.ReadFile("static/" + name)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	v := hex.EncodeToString(sum[:])[:12]
	versions.Store(name, v)
	return v
}

// Handler serves the embedded assets. Requests carrying the current ?v= are
// immutable; anything else revalidates after an hour.
func Handler() http.Handler {
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/static/")
		if v := r.URL.Query().Get("v"); v != "" && v == assetVersion(name) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		fileServer.ServeHTTP(w, r)
	})
}
