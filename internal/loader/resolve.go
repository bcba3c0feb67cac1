package loader

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Resolver decides the format of a module reference and normalizes its URL.
// It depends on nothing else in the pipeline.
type Resolver struct {
	// Glob is the extension-inference collaborator.
	Glob GlobFunc
	// Extensions is the recognized typed-source extension set, in
	// preference order.
	Extensions []string
}

func NewResolver(glob GlobFunc) *Resolver {
	if glob == nil {
		glob = Glob
	}
	return &Resolver{Glob: glob, Extensions: TypedExtensions}
}

// Resolve classifies specifier against referrerURL.
//
// Bare specifiers (no path prefix, not a file: URL) are delegated to the
// fallback resolver when one is supplied; without one the best-effort
// default is a native classification under the unchanged specifier.
func (r *Resolver) Resolve(specifier, referrerURL string, fallback FallbackResolver) (Ref, error) {
	if !isPathSpecifier(specifier) && !strings.HasPrefix(specifier, "file:") {
		if fallback != nil {
			return fallback(specifier, referrerURL)
		}
		return Ref{URL: specifier, Format: FormatJS}, nil
	}

	resolved, err := r.resolveURL(specifier, referrerURL)
	if err != nil {
		return Ref{}, err
	}

	ext := path.Ext(resolved.Path)
	if ext == "" && resolved.Scheme == "file" {
		if ref, ok := r.inferExtension(resolved); ok {
			return ref, nil
		}
		// Zero or multiple candidates: not auto-resolved. Fall through
		// to the native classification; a missing file fails later in
		// the host's own loader.
	}
	if r.isTypedExtension(ext) {
		return Ref{URL: resolved.String(), Format: FormatTS}, nil
	}
	return Ref{URL: resolved.String(), Format: FormatJS}, nil
}

func (r *Resolver) resolveURL(specifier, referrerURL string) (*url.URL, error) {
	if strings.HasPrefix(specifier, "file:") {
		u, err := url.Parse(specifier)
		if err != nil {
			return nil, fmt.Errorf("invalid specifier %q: %w", specifier, err)
		}
		return u, nil
	}
	base, err := url.Parse(referrerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid referrer URL %q: %w", referrerURL, err)
	}
	ref, err := url.Parse(specifier)
	if err != nil {
		return nil, fmt.Errorf("invalid specifier %q: %w", specifier, err)
	}
	return base.ResolveReference(ref), nil
}

// inferExtension searches the target's directory for exactly one typed-source
// candidate. Anything other than a single match is reported as a miss.
func (r *Resolver) inferExtension(resolved *url.URL) (Ref, bool) {
	target := filepath.FromSlash(resolved.Path)
	stem := filepath.Base(target)
	pattern := stem + ".{" + strings.Join(r.bareExtensions(), ",") + "}"
	matches, err := r.Glob(pattern, GlobOptions{
		BaseDir:  filepath.Dir(target),
		Absolute: true,
	})
	if err != nil || len(matches) != 1 {
		return Ref{}, false
	}
	return Ref{URL: PathToFileURL(matches[0]), Format: FormatTS}, true
}

func (r *Resolver) bareExtensions() []string {
	out := make([]string, len(r.Extensions))
	for i, ext := range r.Extensions {
		out[i] = strings.TrimPrefix(ext, ".")
	}
	return out
}

func (r *Resolver) isTypedExtension(ext string) bool {
	for _, e := range r.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func isPathSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/")
}
