package client

import (
	"io"
	"os"
)

// FileSource is the file abstraction consumed by the upload engine. It must
// support random access reads since the engine owns the offset and may re-read
// a range after a failed chunk.
type FileSource interface {
	io.ReaderAt

	// Path returns the location the source was opened from. It is used to
	// derive the default fingerprint and metadata filename and may be empty
	// for sources without one.
	Path() string

	// Size returns the total length of the source in bytes.
	Size() (int64, error)
}

// File is a FileSource backed by a file on the local file system.
type File struct {
	file *os.File
	path string
}

// NewFileSource opens the file at path for uploading. The returned File must
// be closed by the caller once the upload is finished or abandoned.
func NewFileSource(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, IOError{Path: path, Err: err}
	}

	return &File{
		file: file,
		path: path,
	}, nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Size() (int64, error) {
	stat, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.file.ReadAt(p, off)
}

func (f *File) Close() error {
	return f.file.Close()
}

// readChunk returns the bytes in [offset, min(offset+maxBytes, size)). The
// returned slice is empty iff offset equals size. The reader keeps no cursor;
// the engine owns the offset.
func readChunk(src FileSource, offset, maxBytes, size int64) ([]byte, error) {
	end := offset + maxBytes
	if end > size {
		end = size
	}
	if end <= offset {
		return nil, nil
	}

	buf := make([]byte, end-offset)
	n, err := src.ReadAt(buf, offset)
	if err == io.EOF && int64(n) == end-offset {
		// A full read that also reports EOF happens when the chunk ends
		// exactly at the end of the file.
		err = nil
	}
	if err != nil {
		return nil, IOError{Path: src.Path(), Err: err}
	}

	return buf, nil
}
