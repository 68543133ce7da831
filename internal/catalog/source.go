package catalog

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Source produces a validated Catalog. Implementations must return either a
// fully built catalog or an error; never a partial one.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	Load(ctx context.Context) (*Catalog, error)
}

// StaticSource serves the compiled-in catalog.
type StaticSource struct{}

func (StaticSource) Name() string { return "static" }

func (StaticSource) Load(ctx context.Context) (*Catalog, error) {
	return Default()
}

// FileSource reads a catalog Document from the local filesystem. The file
// may be plain JSON or zstd-compressed JSON.
type FileSource struct {
	Path string
	Now  func() time.Time
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Build(s.Now)
}
