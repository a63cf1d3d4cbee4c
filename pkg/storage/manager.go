package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"favarchive/pkg/errors"
	"favarchive/pkg/logger"

	"github.com/gofrs/flock"
)

// LockFileName is created in the media root while a run owns the archive
const LockFileName = ".favarchive.lock"

// Manager owns the archive directories. The files themselves are the record
// of what has been archived; nothing is cached in memory.
type Manager struct {
	layout Layout
	lock   *flock.Flock
	logger logger.Logger
}

// NewManager creates a storage manager, creating both roots if needed
func NewManager(layout Layout, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	for _, dir := range []string{layout.MediaRoot, layout.MetadataRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeIO, err, fmt.Sprintf("failed to create directory %s", dir))
		}
	}

	return &Manager{
		layout: layout,
		lock:   flock.New(filepath.Join(layout.MediaRoot, LockFileName)),
		logger: log,
	}, nil
}

// Layout returns the layout this manager writes to
func (m *Manager) Layout() Layout {
	return m.layout
}

// Lock takes an exclusive advisory lock on the archive. It fails at once if
// another process holds it.
func (m *Manager) Lock() error {
	locked, err := m.lock.TryLock()
	if err != nil {
		return errors.Wrap(errors.ErrorTypeLock, err, "failed to lock output directory")
	}
	if !locked {
		return errors.New(errors.ErrorTypeLock, fmt.Sprintf("output directory %s is in use by another run", m.layout.MediaRoot))
	}
	return nil
}

// Unlock releases the archive lock
func (m *Manager) Unlock() error {
	return m.lock.Unlock()
}

// IsArchived reports whether a file already exists at the post's media path
func (m *Manager) IsArchived(p HydratedPost) bool {
	_, err := os.Stat(p.MediaPath)
	return err == nil
}

// Eligible keeps the posts that have a media URL and are not yet archived,
// in their original order.
func (m *Manager) Eligible(posts []HydratedPost) []HydratedPost {
	eligible := make([]HydratedPost, 0, len(posts))
	for _, p := range posts {
		switch {
		case !p.HasMedia():
			m.logger.DebugWithFields("Skipping post without media", map[string]interface{}{
				"id":  p.ID,
				"md5": p.File.MD5,
			})
		case m.IsArchived(p):
			m.logger.DebugWithFields("Skipping archived post", map[string]interface{}{
				"id":   p.ID,
				"path": p.MediaPath,
			})
		default:
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// SaveMedia streams r into the post's media path. Data goes to a uniquely
// named .part file first, so the media path only ever holds a complete
// download even when two saves of the same checksum overlap.
func (m *Manager) SaveMedia(p HydratedPost, r io.Reader) (int64, error) {
	out, err := os.CreateTemp(filepath.Dir(p.MediaPath), filepath.Base(p.MediaPath)+".*.part")
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeIO, err, "failed to create temporary file")
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, errors.Wrap(errors.ErrorTypeIO, err, "failed to save media data")
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errors.Wrap(errors.ErrorTypeIO, closeErr, "failed to close file")
	}

	// CreateTemp uses 0600
	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return 0, errors.Wrap(errors.ErrorTypeIO, err, "failed to set file mode")
	}

	if err := os.Rename(tempFile, p.MediaPath); err != nil {
		os.Remove(tempFile)
		return 0, errors.Wrap(errors.ErrorTypeIO, err, "failed to rename temporary file")
	}

	return written, nil
}
