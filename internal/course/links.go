package course

import (
	"path/filepath"
	"strings"
)

// Link is a display entry for listing and search views.
type Link struct {
	Link string `json:"link"`
	Name string `json:"name"`
}

// Links returns one entry per file in root/category. Names keep their case
// and whitespace; only the ".md" suffix is removed.
func Links(root, category string) ([]Link, error) {
	files, err := readDir(filepath.Join(root, category))
	if err != nil {
		return nil, err
	}

	prefix := "/" + filepath.ToSlash(category) + "/"
	var links []Link
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := strings.TrimSuffix(f.Name(), ext)
		links = append(links, Link{Link: prefix + name, Name: name})
	}
	return links, nil
}

// AllLinks concatenates Links for every category under root.
func AllLinks(root string) ([]Link, error) {
	categories, err := Categories(root)
	if err != nil {
		return nil, err
	}

	var all []Link
	for _, cat := range categories {
		links, err := Links(root, cat)
		if err != nil {
			return nil, err
		}
		all = append(all, links...)
	}
	return all, nil
}

// Categories returns the category directory names under root.
func Categories(root string) ([]string, error) {
	entries, err := readDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
