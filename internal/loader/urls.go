package loader

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// PathToFileURL converts an absolute filesystem path to a file: URL string.
func PathToFileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// FileURLToPath converts a file: URL back to a filesystem path.
func FileURLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid module URL %q: %w", rawURL, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file URL: %q", rawURL)
	}
	return filepath.FromSlash(u.Path), nil
}
