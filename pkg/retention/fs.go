package retention

import (
	"io/fs"
	"os"
)

// FS is the filesystem surface a sweep needs: listing, per-entry stat and
// per-entry delete.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Remove(name string) error
}

// OSFS implements FS on top of the host filesystem.
type OSFS struct{}

// Stat follows symlinks, so a link to a directory is treated as a directory.
func (OSFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (OSFS) Remove(name string) error {
	return os.Remove(name)
}
