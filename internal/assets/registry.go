// Package assets resolves, fetches, decodes and caches the page's images,
// including the moon texture.
package assets

import (
	"maps"
	"path"
	"slices"
	"strings"
)

// Registry entry names.
const (
	FooterMoon   = "footerMoon"
	MoonTexture  = "moonTexture"
	Stars        = "stars"
	ProjectOne   = "one"
	ProjectTwo   = "two"
	ProjectThree = "three"
)

var defaultPaths = map[string]string{
	FooterMoon:   "public/images/moon.webp",
	MoonTexture:  "public/images/moon_texture.jpg",
	Stars:        "public/images/stars.webp",
	ProjectOne:   "public/images/projects/one.png",
	ProjectTwo:   "public/images/projects/two.jpg",
	ProjectThree: "public/images/projects/three.png",
}

// Registry maps asset names to URLs. Relative paths resolve against the
// base, which is either a directory or an http(s) URL.
type Registry struct {
	base  string
	paths map[string]string
}

// NewRegistry returns the default asset set resolved against base, with
// overrides replacing or adding entries.
func NewRegistry(base string, overrides map[string]string) *Registry {
	paths := maps.Clone(defaultPaths)
	maps.Copy(paths, overrides)
	return &Registry{base: base, paths: paths}
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.paths))
}

// URL returns the resolved location of name, or "" if it is unknown.
func (r *Registry) URL(name string) string {
	p, ok := r.paths[name]
	if !ok {
		return ""
	}
	return r.Resolve(p)
}

// URLs returns every resolved location in name order.
func (r *Registry) URLs() []string {
	var urls []string
	for _, name := range r.Names() {
		urls = append(urls, r.URL(name))
	}
	return urls
}

// Resolve makes p absolute against the registry base. Absolute paths and
// URLs with a scheme are returned unchanged.
func (r *Registry) Resolve(p string) string {
	if p == "" || hasScheme(p) || path.IsAbs(p) || r.base == "" || r.base == "." {
		return p
	}
	if hasScheme(r.base) {
		return strings.TrimSuffix(r.base, "/") + "/" + strings.TrimPrefix(p, "./")
	}
	return path.Join(r.base, p)
}

func hasScheme(s string) bool {
	for _, scheme := range []string{"http://", "https://", "file://"} {
		if strings.HasPrefix(s, scheme) {
			return true
		}
	}
	return false
}
