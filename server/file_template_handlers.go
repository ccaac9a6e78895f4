package server

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// pages are the raw page templates, filled in with render.Format
type pages struct {
	index    string
	callback string
	error    string
}

func loadPages() (pages, error) {
	var p pages
	for name, dst := range map[string]*string{
		"index.html":    &p.index,
		"callback.html": &p.callback,
		"error.html":    &p.error,
	} {
		content, err := fs.ReadFile(TemplateFilesFS(), name)
		if err != nil {
			return pages{}, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		*dst = string(content)
	}
	return p, nil
}
