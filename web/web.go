// Package web embeds the browser UI served at the site root.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/index.html static
var assets embed.FS

// Static returns the static asset tree rooted at web/static.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Index returns the contents of the landing page.
func Index() []byte {
	data, err := assets.ReadFile("templates/index.html")
	if err != nil {
		panic(err)
	}
	return data
}
