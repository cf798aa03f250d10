// Package attachment provides the invoice attachment source: a file
// loaded from disk or built from an in-memory blob, exposing its MIME
// type and raw bytes.
package attachment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File is an attachable document. The document assembler depends only
// on MimeType and Data.
type File struct {
	name string
	mime string
	data []byte
}

// FromPath loads a file from disk and sniffs its MIME type.
func FromPath(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
	}
	return FromBytes(filepath.Base(path), data), nil
}

// FromBytes builds a file from an in-memory blob.
func FromBytes(name string, data []byte) *File {
	return &File{
		name: name,
		mime: mimetype.Detect(data).String(),
		data: data,
	}
}

// Name returns the file name.
func (f *File) Name() string { return f.name }

// MimeType returns the detected MIME type, e.g. "application/pdf".
func (f *File) MimeType() string { return f.mime }

// Data returns the raw file contents.
func (f *File) Data() []byte { return f.data }
