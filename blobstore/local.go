package blobstore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huggingface/videoset/internal/mmap"
)

// LocalStore implements BlobStore on the local file system. It doubles as
// the "remote" store for offline workflows: a dataset published into a
// directory is byte-identical to one published into a bucket.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory. The
// directory is created on first write.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading. Files are memory mapped where the
// platform supports it; video reads then hit the page cache directly.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	path := s.path(name)

	if m, err := mmap.Open(path); err == nil {
		return &mappedBlob{m: m}, nil
	} else if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %q: %w", name, ErrNotFound)
	} else if os.IsPermission(err) {
		return nil, fmt.Errorf("blob %q: %w", name, ErrAccessDenied)
	}

	// Mapping can fail for reasons other than a missing file (platform
	// support, exotic filesystems). Retry with plain file I/O.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileBlob{f: f, size: info.Size()}, nil
}

// Create creates a blob via a temp file that is renamed into place on
// Close, so partially written blobs are never visible.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{f: f, tmp: tmp, final: path}, nil
}

// Put writes a blob atomically (temp file + rename).
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Sync(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Delete removes a blob. Missing blobs are ignored.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns all blob names under the prefix, sorted, using forward
// slashes regardless of platform.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// mappedBlob serves reads from a memory mapping.
type mappedBlob struct {
	m *mmap.Mapping
}

func (b *mappedBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *mappedBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return io.NopCloser(strings.NewReader("")), nil
	}
	end := min(off+length, int64(len(data)))
	return io.NopCloser(strings.NewReader(string(data[off:end]))), nil
}

func (b *mappedBlob) Size() int64 {
	return int64(len(b.m.Bytes()))
}

func (b *mappedBlob) Close() error {
	return b.m.Close()
}

// fileBlob serves reads with positional file I/O.
type fileBlob struct {
	f    *os.File
	size int64
}

func (b *fileBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.f.ReadAt(p, off)
}

func (b *fileBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(io.NewSectionReader(b.f, off, length)), nil
}

func (b *fileBlob) Size() int64 {
	return b.size
}

func (b *fileBlob) Close() error {
	return b.f.Close()
}

type localWritableBlob struct {
	f     *os.File
	tmp   string
	final string
	done  bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	return w.f.Sync()
}

func (w *localWritableBlob) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.f.Close(); err != nil {
		os.Remove(w.tmp)
		return err
	}
	if err := os.Rename(w.tmp, w.final); err != nil {
		os.Remove(w.tmp)
		return err
	}
	return nil
}
