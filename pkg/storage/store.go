package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// tempPrefix marks in-progress uploads. Hidden names are excluded from
// counts and from static serving.
const tempPrefix = ".upload-"

// maxExtLen bounds the extension carried over from the client file name.
const maxExtLen = 10

var (
	// ErrNotDirectory is returned when the storage path exists but is a file.
	ErrNotDirectory = errors.New("storage path is not a directory")

	// ErrDirectoryMissing is returned when the directory is absent and
	// creation was not requested.
	ErrDirectoryMissing = errors.New("storage directory does not exist")
)

// Config configures a Store.
type Config struct {
	// Directory holds the stored videos.
	Directory string

	// CreateIfMissing creates Directory (and parents) on New.
	CreateIfMissing bool
}

// StoredFile describes a successfully persisted upload.
type StoredFile struct {
	Name string
	Path string
	Size int64
}

// Store persists uploaded videos into a single flat directory.
type Store struct {
	dir    string
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// New opens the storage directory, creating it when configured to.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Directory == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(cfg.Directory)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !cfg.CreateIfMissing {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryMissing, cfg.Directory)
		}
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat storage directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, cfg.Directory)
	}

	return &Store{
		dir:    cfg.Directory,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: logger.With("component", "storage"),
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to a new uniquely named file. The file appears in the
// directory only once fully written.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (*StoredFile, error) {
	name := FileName(s.now(), s.newID(), originalName)

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	size, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to sync upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close upload: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to set upload permissions: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to publish upload: %w", err)
	}

	s.logger.InfoContext(ctx, "video stored",
		"file", name,
		"original_name", originalName,
		"size_bytes", size,
	)

	return &StoredFile{Name: name, Path: path, Size: size}, nil
}

// Count returns the number of stored videos: regular, non-hidden files.
func (s *Store) Count() (int, error) {
	return countFiles(s.dir)
}

// CheckWritable verifies a file can be created in the directory.
func (s *Store) CheckWritable() error {
	f, err := os.CreateTemp(s.dir, tempPrefix+"probe-*")
	if err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// FileName builds the stored name "<unix-millis>-<id><ext>". The extension is
// taken from the client name, lower-cased, and dropped when it is not a
// short alphanumeric suffix.
func FileName(now time.Time, id, originalName string) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), id, cleanExt(originalName))
}

func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// IsHidden reports whether a directory entry name is internal to the store.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func countFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if IsHidden(e.Name()) || !e.Type().IsRegular() {
			continue
		}
		n++
	}
	return n, nil
}
