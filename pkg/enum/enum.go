// Package enum discovers content to scan.
package enum

import (
	"context"

	"github.com/praetorian-inc/regext/pkg/types"
)

// Callback receives one blob: its content, its ID, and the path it was
// read from. Callbacks may run concurrently.
type Callback func(content []byte, blobID types.BlobID, path string) error

// Enumerator discovers content to scan from a source.
type Enumerator interface {
	// Enumerate yields blobs from the source.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration. It may be a single file.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// IncludePaths and ExcludePaths are patterns tested against each
	// file's slash-separated path relative to Root. An empty IncludePaths
	// admits every file.
	IncludePaths []string
	ExcludePaths []string

	// Workers is the number of parallel readers (0 = runtime.NumCPU()).
	Workers int
}
