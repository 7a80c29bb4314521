// Package resolve implements the default contracts.Resolver: Node-style
// relative and node_modules specifier resolution over a real filesystem,
// __mocks__ sidecar probing for manual mocks, and built-in classification
// via a configured allow-list.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSResolver is the default filesystem-backed contracts.Resolver.
type FSResolver struct {
	rootDir    string
	extensions []string
	builtins   map[string]struct{}
	haste      map[string]string
}

// Option configures an FSResolver.
type Option func(*FSResolver)

// WithExtensions overrides the candidate extensions tried during
// resolution, in priority order. The empty string means "specifier names
// the file exactly".
func WithExtensions(exts ...string) Option {
	return func(r *FSResolver) { r.extensions = exts }
}

// WithBuiltins marks specifiers as core modules, bypassing filesystem
// resolution entirely per spec.md §4.3 step 3.
func WithBuiltins(names ...string) Option {
	return func(r *FSResolver) {
		for _, n := range names {
			r.builtins[n] = struct{}{}
		}
	}
}

// WithHasteMap seeds a flat specifier->absolutePath index consulted by
// GetModule, standing in for the out-of-scope haste/index builder
// spec.md §1 names as a collaborator.
func WithHasteMap(m map[string]string) Option {
	return func(r *FSResolver) {
		for k, v := range m {
			r.haste[k] = v
		}
	}
}

// NewFSResolver constructs a resolver rooted at rootDir.
func NewFSResolver(rootDir string, opts ...Option) *FSResolver {
	r := &FSResolver{
		rootDir:    rootDir,
		extensions: []string{"", ".js", ".json", ".native"},
		builtins:   make(map[string]struct{}),
		haste:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsCoreModule reports whether specifier was registered via WithBuiltins.
func (r *FSResolver) IsCoreModule(specifier string) bool {
	_, ok := r.builtins[specifier]
	return ok
}

// GetModule looks specifier up in the haste map.
func (r *FSResolver) GetModule(specifier string) string {
	return r.haste[specifier]
}

// ResolveModule resolves specifier relative to from using Node-style
// rules: a "." or ".." prefixed specifier resolves relative to from's
// directory; anything else is searched for under each node_modules
// directory on the path from from's directory up to rootDir.
func (r *FSResolver) ResolveModule(from, specifier string) (string, error) {
	if isRelative(specifier) {
		base := filepath.Join(filepath.Dir(from), specifier)
		if path, ok := r.tryExtensions(base); ok {
			return path, nil
		}
		return "", fmt.Errorf("sandboxtest: cannot resolve %q from %s", specifier, from)
	}

	for _, dir := range r.GetModulePaths(filepath.Dir(from)) {
		base := filepath.Join(dir, specifier)
		if path, ok := r.tryExtensions(base); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("sandboxtest: cannot resolve %q from %s", specifier, from)
}

// GetMockModule implements the manual-mock and __mocks__ sidecar rules
// of spec.md §4.4 step 3: a relative specifier's sidecar lives at
// <dir>/__mocks__/<basename>; a bare specifier's sidecar lives at
// <rootDir>/__mocks__/<specifier>.
func (r *FSResolver) GetMockModule(from, specifier string) string {
	if isRelative(specifier) {
		dir := filepath.Dir(filepath.Join(filepath.Dir(from), specifier))
		base := filepath.Base(specifier)
		sidecarDir := filepath.Join(dir, "__mocks__")
		if path, ok := r.tryExtensionsIn(sidecarDir, base); ok {
			return path
		}
		return ""
	}

	sidecarDir := filepath.Join(r.rootDir, "__mocks__")
	if path, ok := r.tryExtensionsIn(sidecarDir, specifier); ok {
		return path
	}
	return ""
}

// GetModulePaths returns dir and every ancestor's node_modules directory
// up to rootDir, the search-path list spec.md §3 says a module record
// carries.
func (r *FSResolver) GetModulePaths(dir string) []string {
	var paths []string
	for {
		paths = append(paths, filepath.Join(dir, "node_modules"))
		if dir == r.rootDir || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return paths
}

func (r *FSResolver) tryExtensions(base string) (string, bool) {
	dir, name := filepath.Split(base)
	return r.tryExtensionsIn(dir, name)
}

func (r *FSResolver) tryExtensionsIn(dir, name string) (string, bool) {
	for _, ext := range r.extensions {
		candidate := filepath.Join(dir, name+ext)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == ".."
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
