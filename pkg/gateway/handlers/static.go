package handlers

import (
	"io/fs"
	"net/http"
	"strings"

	"primeia/videogate/pkg/storage"
)

// videoFS exposes only regular, non-hidden files of the storage directory.
// Directories, including the root, read as missing so no listing is served.
type videoFS struct {
	root http.FileSystem
}

func (v videoFS) Open(name string) (http.File, error) {
	for _, elem := range strings.Split(strings.Trim(name, "/"), "/") {
		if elem == "" || storage.IsHidden(elem) {
			return nil, fs.ErrNotExist
		}
	}

	f, err := v.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// NewVideoServer serves stored videos under prefix (e.g. "/videos").
// Range requests and conditional GETs are handled by http.FileServer.
func NewVideoServer(dir, prefix string) http.Handler {
	files := http.FileServer(videoFS{root: http.Dir(dir)})
	return http.StripPrefix(strings.TrimRight(prefix, "/"), files)
}
