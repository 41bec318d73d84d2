package enum

import (
	"context"
	"sync"

	"github.com/praetorian-inc/regext/pkg/types"
)

// CombinedEnumerator chains the enumerators of several scan targets.
// Overlapping targets, such as a directory and one of its subdirectories,
// would otherwise hand the same content to the scanner twice, so each
// BlobID is passed on once, under the first path it was read from.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator chains enumerators in the given order.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// blobSet records BlobIDs across concurrent callbacks.
type blobSet struct {
	mu   sync.Mutex
	seen map[types.BlobID]struct{}
}

// claim reports whether id is new, recording it if so.
func (s *blobSet) claim(id types.BlobID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Enumerate runs each enumerator to completion before starting the next
// and stops at the first error.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	blobs := &blobSet{seen: make(map[types.BlobID]struct{})}
	forward := func(content []byte, blobID types.BlobID, path string) error {
		if !blobs.claim(blobID) {
			return nil
		}
		return callback(content, blobID, path)
	}

	for _, e := range c.enumerators {
		if err := e.Enumerate(ctx, forward); err != nil {
			return err
		}
	}
	return nil
}
