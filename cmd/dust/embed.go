package main

import (
	"embed"
	"io/fs"

	"github.com/blackwell-systems/dust/internal/server"
)

//go:embed all:ui
var uiFiles embed.FS

func init() {
	sub, err := fs.Sub(uiFiles, "ui")
	if err != nil {
		panic(err)
	}
	server.SetUI(sub)
}
