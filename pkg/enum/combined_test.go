package enum

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/praetorian-inc/regext/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEnumerator is a simple Enumerator that yields a fixed set of blobs.
type mockEnumerator struct {
	blobs []mockBlob
}

type mockBlob struct {
	content []byte
	blobID  types.BlobID
	path    string
}

func (m *mockEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	for _, b := range m.blobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := callback(b.content, b.blobID, b.path); err != nil {
			return err
		}
	}
	return nil
}

func TestEnumerator_Implementations(t *testing.T) {
	var _ Enumerator = (*FilesystemEnumerator)(nil)
	var _ Enumerator = (*CombinedEnumerator)(nil)
	var _ Enumerator = (*mockEnumerator)(nil)
}

// blobID creates a fixed BlobID from a byte value for test convenience.
func blobIDFrom(b byte) types.BlobID {
	var id types.BlobID
	id[0] = b
	return id
}

func TestCombinedEnumerator_Empty(t *testing.T) {
	combined := NewCombinedEnumerator()

	var yielded int
	err := combined.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, path string) error {
		yielded++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 0, yielded, "empty CombinedEnumerator should yield no blobs")
}

func TestCombinedEnumerator_SingleEnumerator(t *testing.T) {
	id1 := blobIDFrom(1)
	id2 := blobIDFrom(2)

	e1 := &mockEnumerator{blobs: []mockBlob{
		{content: []byte("hello"), blobID: id1, path: "a.txt"},
		{content: []byte("world"), blobID: id2, path: "b.txt"},
	}}
	combined := NewCombinedEnumerator(e1)

	type yielded struct {
		blobID types.BlobID
		path   string
	}
	var results []yielded
	err := combined.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, path string) error {
		results = append(results, yielded{blobID: blobID, path: path})
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, id1, results[0].blobID)
	assert.Equal(t, id2, results[1].blobID)
	assert.Equal(t, "b.txt", results[1].path)
}

func TestCombinedEnumerator_DeduplicatesByBlobID(t *testing.T) {
	sharedID := blobIDFrom(42)
	uniqueID := blobIDFrom(99)

	// Both enumerators yield the same blobID; only one should reach the callback.
	e1 := &mockEnumerator{blobs: []mockBlob{
		{content: []byte("dup"), blobID: sharedID, path: "first.txt"},
	}}
	e2 := &mockEnumerator{blobs: []mockBlob{
		{content: []byte("dup"), blobID: sharedID, path: "second.txt"},
		{content: []byte("unique"), blobID: uniqueID, path: "unique.txt"},
	}}
	combined := NewCombinedEnumerator(e1, e2)

	var blobIDs []types.BlobID
	var paths []string
	err := combined.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, path string) error {
		blobIDs = append(blobIDs, blobID)
		paths = append(paths, path)
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, blobIDs, 2, "shared blob should be deduplicated, only 2 unique blobs expected")
	assert.Contains(t, blobIDs, sharedID)
	assert.Contains(t, blobIDs, uniqueID)
	assert.Equal(t, []string{"first.txt", "unique.txt"}, paths, "first path wins for duplicates")
}

func TestCombinedEnumerator_AllUniqueBlobs(t *testing.T) {
	e1 := &mockEnumerator{blobs: []mockBlob{
		{content: []byte("a"), blobID: blobIDFrom(1), path: "a.txt"},
		{content: []byte("b"), blobID: blobIDFrom(2), path: "b.txt"},
	}}
	e2 := &mockEnumerator{blobs: []mockBlob{
		{content: []byte("c"), blobID: blobIDFrom(3), path: "c.txt"},
	}}
	combined := NewCombinedEnumerator(e1, e2)

	var count int
	err := combined.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, path string) error {
		count++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, count, "all unique blobs from both enumerators should be yielded")
}

func TestCombinedEnumerator_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var callCount int
	e1 := &mockEnumerator{blobs: []mockBlob{
		{content: []byte("a"), blobID: blobIDFrom(1), path: "a.txt"},
		{content: []byte("b"), blobID: blobIDFrom(2), path: "b.txt"},
	}}
	combined := NewCombinedEnumerator(e1)

	err := combined.Enumerate(ctx, func(content []byte, blobID types.BlobID, path string) error {
		callCount++
		cancel() // Cancel after first blob
		return nil
	})

	// The context cancellation should propagate as an error.
	assert.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got: %v", err)
	assert.Equal(t, 1, callCount, "should stop after cancellation")
}

func TestCombinedEnumerator_OverlappingTargets(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"top.txt":      "top",
		"sub/deep.txt": "deep",
		"sub/copy.txt": "top",
	})

	combined := NewCombinedEnumerator(
		NewFilesystemEnumerator(Config{Root: root, Workers: 1}),
		NewFilesystemEnumerator(Config{Root: filepath.Join(root, "sub"), Workers: 1}),
	)

	var mu sync.Mutex
	seen := make(map[types.BlobID]int)
	err := combined.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, path string) error {
		mu.Lock()
		seen[blobID]++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	// "top" and "deep" once each, however many paths hold them.
	assert.Len(t, seen, 2)
	for id, n := range seen {
		assert.Equal(t, 1, n, id.Hex())
	}
}

func TestCombinedEnumerator_StopsAtFirstError(t *testing.T) {
	boom := errors.New("unreadable")
	first := &mockEnumerator{blobs: []mockBlob{{content: []byte("a"), blobID: blobIDFrom(1), path: "a.txt"}}}
	second := &mockEnumerator{blobs: []mockBlob{{content: []byte("b"), blobID: blobIDFrom(2), path: "b.txt"}}}

	var paths []string
	err := NewCombinedEnumerator(first, second).Enumerate(context.Background(), func(content []byte, blobID types.BlobID, path string) error {
		paths = append(paths, path)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a.txt"}, paths)
}
