package catalog

import (
	"context"
	"os"
)

// FileSource reads the catalog from a JSON document on disk. The file is
// re-read on every Load, so an operator can swap items.json in place and the
// next request sees the new prices.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "read " + s.path, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &StorageError{Op: "read " + s.path, Err: err}
	}

	c, err := parseCatalog(data)
	if err != nil {
		return nil, &StorageError{Op: "parse " + s.path, Err: err}
	}
	return c, nil
}
