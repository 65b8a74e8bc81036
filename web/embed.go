// Package web holds the HTML templates and static assets, compiled into the
// binary so the server runs from any working directory.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the static assets rooted at static/, ready for
// http.FileServerFS.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// fs.Sub only fails on an invalid path, and "static" is a literal.
		panic(err)
	}
	return sub
}
