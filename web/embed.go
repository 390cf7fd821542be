package web

import (
	"embed"
	"io/fs"
)

// Templates holds the layouts and pages parsed by the view engine.
//
//go:embed templates/**/*.html
var Templates embed.FS

//go:embed static/**/*
var static embed.FS

// StaticFS returns the assets rooted at static/, ready to serve under /static/.
func StaticFS() (fs.FS, error) {
	return fs.Sub(static, "static")
}
