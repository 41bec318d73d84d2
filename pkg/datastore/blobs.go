package datastore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/regext/pkg/types"
)

// Excerpt is the text of the lines holding a span, split around the span.
type Excerpt struct {
	Before   string
	Matching string
	After    string
}

// Store writes content to blob storage and returns the blob ID.
// Blob ID is SHA-1 hash of content (same as git blob hashing).
func (b *BlobStore) Store(content []byte) (types.BlobID, error) {
	// Compute blob ID using git-style hash
	id := types.ComputeBlobID(content)

	// Check if blob already exists (content-addressable = idempotent)
	path := b.blobPath(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	// Create prefix directory if needed
	prefixDir := filepath.Dir(path)
	if err := os.MkdirAll(prefixDir, 0755); err != nil {
		return types.BlobID{}, fmt.Errorf("creating blob directory: %w", err)
	}

	// Write blob content atomically using a unique temp file + rename,
	// so concurrent writers of the same blob never see a partial file.
	tmp, err := os.CreateTemp(prefixDir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return types.BlobID{}, fmt.Errorf("writing blob: %w", err)
	}
	tempPath := tmp.Name()
	_, err = tmp.Write(content)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return types.BlobID{}, fmt.Errorf("writing blob: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file on failure
		return types.BlobID{}, fmt.Errorf("renaming blob: %w", err)
	}

	return id, nil
}

// Get retrieves content by blob ID.
func (b *BlobStore) Get(id types.BlobID) ([]byte, error) {
	path := b.blobPath(id)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", id.Hex())
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}

	return content, nil
}

// Exists checks if a blob exists in storage.
func (b *BlobStore) Exists(id types.BlobID) bool {
	path := b.blobPath(id)
	_, err := os.Stat(path)
	return err == nil
}

// Excerpt returns the full lines of blob id that hold span.
func (b *BlobStore) Excerpt(id types.BlobID, span types.OffsetSpan) (Excerpt, error) {
	content, err := b.Get(id)
	if err != nil {
		return Excerpt{}, err
	}
	return excerpt(content, span)
}

func excerpt(content []byte, span types.OffsetSpan) (Excerpt, error) {
	if span.Start < 0 || span.End < span.Start || span.End > len(content) {
		return Excerpt{}, fmt.Errorf("span %d-%d outside blob of %d bytes", span.Start, span.End, len(content))
	}

	lineStart := bytes.LastIndexByte(content[:span.Start], '\n') + 1
	lineEnd := len(content)
	if i := bytes.IndexByte(content[span.End:], '\n'); i >= 0 {
		lineEnd = span.End + i
	}

	return Excerpt{
		Before:   string(content[lineStart:span.Start]),
		Matching: string(content[span.Start:span.End]),
		After:    string(bytes.TrimSuffix(content[span.End:lineEnd], []byte("\r"))),
	}, nil
}

// blobPath returns the file path for a blob ID.
// Uses git-style 2-char prefix: blobs/ab/cdef1234...
func (b *BlobStore) blobPath(id types.BlobID) string {
	hexID := id.Hex()
	// First 2 chars are directory prefix
	prefix := hexID[:2]
	// Rest is filename
	rest := hexID[2:]
	return filepath.Join(b.Root, prefix, rest)
}
