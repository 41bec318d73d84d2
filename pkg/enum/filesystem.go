package enum

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/praetorian-inc/regext"
	"github.com/praetorian-inc/regext/pkg/types"
	"golang.org/x/sync/errgroup"
)

// binaryProbeSize is how much of a file is checked for NUL bytes.
const binaryProbeSize = 8000

// FilesystemEnumerator enumerates files from a filesystem directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// pathFilter holds the compiled include and exclude path patterns.
type pathFilter struct {
	include []*regext.Pattern
	exclude []*regext.Pattern
}

func newPathFilter(config Config) (*pathFilter, error) {
	pf := &pathFilter{}
	for _, src := range config.IncludePaths {
		p, err := regext.Compile(src, "")
		if err != nil {
			return nil, fmt.Errorf("include path pattern: %w", err)
		}
		pf.include = append(pf.include, p)
	}
	for _, src := range config.ExcludePaths {
		p, err := regext.Compile(src, "")
		if err != nil {
			return nil, fmt.Errorf("exclude path pattern: %w", err)
		}
		pf.exclude = append(pf.exclude, p)
	}
	return pf, nil
}

// admits reports whether relPath passes the filter.
func (pf *pathFilter) admits(relPath string) (bool, error) {
	if len(pf.include) > 0 {
		ok, err := anyMatch(pf.include, relPath)
		if err != nil || !ok {
			return false, err
		}
	}
	excluded, err := anyMatch(pf.exclude, relPath)
	return !excluded, err
}

func anyMatch(patterns []*regext.Pattern, s string) (bool, error) {
	for _, p := range patterns {
		ok, err := p.SafeTest(s)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Enumerate walks the filesystem and yields file blobs.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Read files and invoke callback in parallel.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	filter, err := newPathFilter(e.config)
	if err != nil {
		return err
	}

	rootInfo, err := os.Stat(e.config.Root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", e.config.Root, err)
	}
	if !rootInfo.IsDir() {
		return e.processFile(ctx, e.config.Root, callback)
	}

	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(e.config.Root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	// Phase 1: Walk and collect eligible file paths
	var files []string
	err = filepath.Walk(e.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if !e.config.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}

		if !e.config.IncludeHidden && isHidden(info.Name()) {
			return nil
		}

		if e.config.MaxFileSize > 0 && info.Size() > e.config.MaxFileSize {
			return nil
		}

		relPath, err := filepath.Rel(e.config.Root, path)
		if err != nil {
			return err
		}
		if ignore != nil && ignore.MatchesPath(relPath) {
			return nil
		}
		ok, err := filter.admits(filepath.ToSlash(relPath))
		if err != nil {
			return fmt.Errorf("filtering %s: %w", relPath, err)
		}
		if !ok {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}

	// Phase 2: Read and process files in parallel
	numReaders := e.config.Workers
	if numReaders < 1 {
		numReaders = runtime.NumCPU()
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan string, numReaders*2)

	// Feed paths to readers
	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Parallel readers
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for path := range pathsCh {
				if err := e.processFile(ctx, path, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

// processFile reads a single file and invokes the callback.
// Binary files are skipped.
func (e *FilesystemEnumerator) processFile(ctx context.Context, path string, callback Callback) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if isBinary(content) {
		return nil
	}

	return callback(content, types.ComputeBlobID(content), path)
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isBinary detects binary content by a NUL byte near the start.
func isBinary(content []byte) bool {
	checkSize := len(content)
	if checkSize > binaryProbeSize {
		checkSize = binaryProbeSize
	}
	return bytes.IndexByte(content[:checkSize], 0) != -1
}
