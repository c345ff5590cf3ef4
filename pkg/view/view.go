// Package view resolves handler-supplied view names into concrete paths.
// Names starting with the path separator are absolute and used verbatim;
// everything else is joined onto the configured base folder.
package view

import (
	"errors"
	"path"
	"strings"
)

// DefaultBaseFolder is the folder relative view names resolve against.
const DefaultBaseFolder = "/WEB-INF/views/"

// ErrEmptyView is returned when a blank view name is resolved.
var ErrEmptyView = errors.New("view: name is required")

// View identifies renderable content. Resolved is set once the path has been
// run through a Resolver, after which the path is final.
type View struct {
	Path     string
	Resolved bool
}

// Ext returns the lower-cased extension of the view path, including the dot.
func (v View) Ext() string {
	return strings.ToLower(path.Ext(v.Path))
}

// Name returns the last path element without its extension.
func (v View) Name() string {
	base := path.Base(v.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Trim returns the view path relative to prefix, used by engines that key
// their templates without the base folder.
func (v View) Trim(prefix string) string {
	trimmed := v.Path
	if prefix != "" && strings.HasPrefix(trimmed, prefix) {
		trimmed = strings.TrimPrefix(trimmed, prefix)
	}
	return strings.TrimPrefix(trimmed, "/")
}

func (v View) String() string {
	return v.Path
}

// Resolver turns view names into resolved Views.
type Resolver struct {
	BaseFolder string
}

// NewResolver returns a Resolver rooted at base, falling back to
// DefaultBaseFolder when base is blank.
func NewResolver(base string) Resolver {
	return Resolver{BaseFolder: base}
}

// Base returns the normalised base folder, always starting and ending with a
// separator.
func (r Resolver) Base() string {
	base := strings.TrimSpace(r.BaseFolder)
	if base == "" {
		return DefaultBaseFolder
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// Resolve converts name into a View. Absolute names are kept as-is.
func (r Resolver) Resolve(name string) (View, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return View{}, ErrEmptyView
	}
	if strings.HasPrefix(trimmed, "/") {
		return View{Path: trimmed, Resolved: true}, nil
	}
	return View{Path: r.Base() + trimmed, Resolved: true}, nil
}

// ResolveView resolves v unless it is already resolved, so a view is never
// joined onto the base folder twice.
func (r Resolver) ResolveView(v View) (View, error) {
	if v.Resolved {
		if strings.TrimSpace(v.Path) == "" {
			return View{}, ErrEmptyView
		}
		return v, nil
	}
	return r.Resolve(v.Path)
}
