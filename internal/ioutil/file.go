// Package ioutil provides the default local-file ByteSink/ByteSource
// implementations used by Writer and Reader. Errors from the os package
// are returned unchanged; the Writer wraps sink write errors as IoError.
package ioutil

import "os"

// File adapts *os.File to the io.Writer / ByteSource surfaces the writer
// and reader need; its methods return the os package's errors as is.
type File struct {
	f *os.File
}

// Create opens name for writing, truncating any existing file.
func Create(name string) (*File, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// Open opens name for reading.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

func (w *File) Write(p []byte) (int, error) { return w.f.Write(p) }

func (w *File) ReadAt(p []byte, off int64) (int, error) { return w.f.ReadAt(p, off) }

// Size returns the current file size in bytes.
func (w *File) Size() (int64, error) {
	info, err := w.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close closes the underlying file.
func (w *File) Close() error { return w.f.Close() }
