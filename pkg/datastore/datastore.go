// Package datastore keeps the content of scanned blobs, addressed by blob
// ID, so reports can show the source lines around a finding.
package datastore

import (
	"fmt"
	"os"
)

// BlobStore manages content-addressable blob storage under Root.
type BlobStore struct {
	Root string
}

// Open opens or creates a blob store rooted at root.
func Open(root string) (*BlobStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob store path is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating blob store directory: %w", err)
	}
	return &BlobStore{Root: root}, nil
}
