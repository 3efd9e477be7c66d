package port

import "io"

// ChunkStage is the durable staging area for accepted chunk bytes. The session
// store writes into it on every append; the storage worker reads from it after
// completion, possibly from another process.
type ChunkStage interface {
	WriteAt(uploadID string, offset int64, chunk []byte) error
	Open(uploadID string) (io.ReadCloser, error)
	Size(uploadID string) (int64, error)
	Remove(uploadID string) error
	// Path is the location of the staged bytes on the shared filesystem,
	// usable for whole-file checksum verification.
	Path(uploadID string) string
}
