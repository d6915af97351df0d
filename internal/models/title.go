package models

import (
	"net/url"
	"strings"
)

// TitleFromKey derives a display title from an article key. Keys are parsed
// as URLs; the title is the path after "/wiki/" when present, otherwise the
// last non-empty path segment, with underscores shown as spaces. It returns
// nil when no title can be derived.
func TitleFromKey(key string) *string {
	u, err := url.Parse(key)
	if err != nil || u.Host == "" {
		return nil
	}

	path := u.Path
	var raw string
	if i := strings.Index(path, "/wiki/"); i >= 0 {
		raw = path[i+len("/wiki/"):]
	} else {
		segments := strings.Split(strings.Trim(path, "/"), "/")
		raw = segments[len(segments)-1]
	}

	title := strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
	if title == "" {
		return nil
	}
	return &title
}
