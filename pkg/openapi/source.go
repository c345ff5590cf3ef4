package openapi

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// SourceKind enumerates where a document is loaded from.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies an OpenAPI document.
type Source struct {
	Kind     SourceKind
	Location string
}

func (s Source) String() string {
	return string(s.Kind) + ":" + s.Location
}

// SourceFromFile points at a document on disk.
func SourceFromFile(path string) Source {
	return Source{Kind: SourceKindFile, Location: filepath.Clean(path)}
}

// SourceFromFS points at a document inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return Source{Kind: SourceKindFS, Location: name}
}

// SourceFromURL points at a remote document.
func SourceFromURL(raw string) (Source, error) {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return Source{}, fmt.Errorf("openapi: invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Source{}, fmt.Errorf("openapi: unsupported URL scheme %q", u.Scheme)
	}
	return Source{Kind: SourceKindURL, Location: raw}, nil
}
