package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Disk stages accepted chunk bytes under one file per upload id. Appends are
// positional writes, so a crash mid-upload leaves a resumable prefix on disk
// and the storage worker can stream the finished file from another process.
type Disk struct {
	dir string
}

// NewDisk creates the staging directory if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", dir, err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) path(uploadID string) string {
	// Upload ids are generated uuids, but never trust them as paths.
	return filepath.Join(d.dir, filepath.Base(uploadID))
}

// WriteAt persists chunk at the given byte offset.
func (d *Disk) WriteAt(uploadID string, offset int64, chunk []byte) error {
	f, err := os.OpenFile(d.path(uploadID), os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open staged file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteAt(chunk, offset); err != nil {
		return fmt.Errorf("failed to stage chunk at offset %d: %w", offset, err)
	}
	return f.Sync()
}

// Open returns a reader over the staged bytes.
func (d *Disk) Open(uploadID string) (io.ReadCloser, error) {
	f, err := os.Open(d.path(uploadID))
	if err != nil {
		return nil, fmt.Errorf("failed to open staged file: %w", err)
	}
	return f, nil
}

// Size reports how many bytes are staged for the upload.
func (d *Disk) Size(uploadID string) (int64, error) {
	info, err := os.Stat(d.path(uploadID))
	if err != nil {
		return 0, fmt.Errorf("failed to stat staged file: %w", err)
	}
	return info.Size(), nil
}

// Remove deletes the staged file. Removing an already-gone file is not an error.
func (d *Disk) Remove(uploadID string) error {
	err := os.Remove(d.path(uploadID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove staged file: %w", err)
	}
	return nil
}

// Path exposes the staged file location for checksum verification.
func (d *Disk) Path(uploadID string) string {
	return d.path(uploadID)
}
