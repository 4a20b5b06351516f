// Package mmap provides read-only memory mapping of local files.
//
// Local stores map video blobs instead of issuing positional reads; the
// page cache then serves repeated ReadAt calls without syscalls. On
// platforms without mmap support callers fall back to file I/O.
package mmap

import "os"

// Mapping is a read-only memory mapping of a file.
type Mapping struct {
	data []byte
}

// Open maps the file at path read-only. The file descriptor is closed
// before returning; the mapping keeps the pages alive.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	data, err := mapFile(f, info.Size())
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

// Bytes returns the mapped bytes. The slice is valid until Close.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Close unmaps the file.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unmapFile(data)
}
