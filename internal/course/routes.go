package course

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrDuplicateRoute is returned when two files normalize to the same route.
var ErrDuplicateRoute = errors.New("duplicate route")

// Route is a page the site generator will produce for one course document.
type Route struct {
	Category string
	Slug     string
	DirName  string // category directory name as found on disk
	File     string // file name inside DirName
}

// Link returns "/<category>/<slug>".
func (r Route) Link() string {
	return "/" + r.Category + "/" + r.Slug
}

// Dir returns the category directory under root.
func (r Route) Dir(root string) string {
	return filepath.Join(root, r.DirName)
}

// Load reads the document behind the route.
func (r Route) Load(root string) (*Doc, error) {
	return ReadDoc(r.Dir(root), r.File)
}

// Enumerate lists every routable document under root. Each immediate
// subdirectory is a category; every regular file in it yields one route.
// Order follows os.ReadDir, which sorts by name.
func Enumerate(root string) ([]Route, error) {
	categories, err := readDir(root)
	if err != nil {
		return nil, err
	}

	var routes []Route
	seen := make(map[string]string)

	for _, cat := range categories {
		if !cat.IsDir() {
			continue
		}

		files, err := readDir(filepath.Join(root, cat.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			r, ok := RouteOf(cat.Name(), f.Name())
			if !ok {
				continue
			}

			src := filepath.Join(cat.Name(), f.Name())
			if other, ok := seen[r.Link()]; ok {
				return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrDuplicateRoute, other, src, r.Link())
			}
			seen[r.Link()] = src
			routes = append(routes, r)
		}
	}
	return routes, nil
}

// RouteOf builds the route for file inside the category directory dirName.
// It reports false for names that cannot form a route, such as hidden files.
func RouteOf(dirName, file string) (Route, bool) {
	if strings.HasPrefix(dirName, ".") || strings.HasPrefix(file, ".") {
		return Route{}, false
	}
	r := Route{
		Category: RouteSegment(dirName),
		Slug:     RouteSegment(file),
		DirName:  dirName,
		File:     file,
	}
	if !validSlug(r.Category) || !validSlug(r.Slug) {
		return Route{}, false
	}
	return r, true
}

// Entry returns the slug index entry of the route as published below prefix.
// The name is the file name without its ".md" suffix.
func (r Route) Entry(prefix string) Link {
	return Link{Link: prefix + r.Link(), Name: strings.TrimSuffix(r.File, ext)}
}

// RouteLinks returns the published entry of every markdown route under root,
// in enumeration order. Links resolve to generated pages when mounted below
// prefix.
func RouteLinks(root, prefix string) ([]Link, error) {
	routes, err := Enumerate(root)
	if err != nil {
		return nil, err
	}
	var links []Link
	for _, r := range routes {
		if !strings.HasSuffix(r.File, ext) {
			continue
		}
		links = append(links, r.Entry(prefix))
	}
	return links, nil
}

// Paths returns the link of every route, in order.
func Paths(routes []Route) []string {
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = r.Link()
	}
	return out
}
