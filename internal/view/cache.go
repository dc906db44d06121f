// Package view holds the front-end state and the pure functions that turn it
// into something drawable: the file cache, the filter and the renderer.
package view

import (
	"slices"
	"strings"
)

// FileCache mirrors the last file list the server returned. It is replaced
// wholesale, never merged, and never exposes its backing slice.
type FileCache struct {
	names []string
}

// Replace swaps in a copy of names.
func (c *FileCache) Replace(names []string) {
	c.names = slices.Clone(names)
	if c.names == nil {
		c.names = []string{}
	}
}

// Names returns a copy of the cached names in server order.
func (c *FileCache) Names() []string {
	return slices.Clone(c.names)
}

// Len returns the number of cached names.
func (c *FileCache) Len() int {
	return len(c.names)
}

// Filter returns the names whose lowercase form contains the lowercase
// query, in their original order. An empty query returns every name.
func Filter(names []string, query string) []string {
	out := make([]string, 0, len(names))
	if query == "" {
		return append(out, names...)
	}

	q := strings.ToLower(query)
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, name)
		}
	}
	return out
}
