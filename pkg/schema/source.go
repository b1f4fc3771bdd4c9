package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// SourceKind enumerates where a snapshot can be read from.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source locates a form snapshot: an on-disk path, an entry inside an fs.FS,
// or an HTTP(S) endpoint. The zero value is invalid; construct one with
// SourceFromFile, SourceFromFS, or SourceFromURL.
type Source struct {
	kind SourceKind
	ref  string
}

// Kind reports the source's modality.
func (s Source) Kind() SourceKind {
	return s.kind
}

// Location returns the path, fs entry name, or URL the source points at.
func (s Source) Location() string {
	return s.ref
}

func (s Source) valid() bool {
	return s.kind != ""
}

// SourceFromFile points at an on-disk snapshot.
func SourceFromFile(path string) Source {
	return Source{kind: SourceKindFile, ref: filepath.Clean(path)}
}

// SourceFromFS points at an entry inside an fs.FS; pair it with
// WithSnapshotFS when loading.
func SourceFromFS(name string) Source {
	return Source{kind: SourceKindFS, ref: name}
}

// SourceFromURL points at an HTTP(S) endpoint serving a snapshot.
func SourceFromURL(raw string) (Source, error) {
	if raw == "" {
		return Source{}, fmt.Errorf("schema: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return Source{}, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	return Source{kind: SourceKindURL, ref: raw}, nil
}
