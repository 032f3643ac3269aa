package course

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfassina/coursesite/internal/markdown"
)

// ErrNotFound is returned when a document or content directory does not exist.
var ErrNotFound = errors.New("not found")

// Doc is one markdown document read from the course store.
type Doc struct {
	Link    string
	Meta    map[string]any
	Content string
}

// Title returns the front-matter title, falling back to the slug.
func (d *Doc) Title() string {
	if t := markdown.MetaString(d.Meta, "title"); t != "" {
		return t
	}
	return strings.NewReplacer("-", " ", "_", " ").Replace(d.Link)
}

// DisplayTitle prefers the front-matter title, then the first level-1
// heading of tree, then the slug.
func (d *Doc) DisplayTitle(tree *markdown.RenderTree) string {
	if markdown.MetaString(d.Meta, "title") == "" && tree != nil {
		if h := tree.Title(); h != "" {
			return h
		}
	}
	return d.Title()
}

// ReadDoc reads dir/<slug>.md and splits its front-matter from the body.
func ReadDoc(dir, slug string) (*Doc, error) {
	link := NormalizeSlug(slug)
	if !validSlug(link) {
		return nil, fmt.Errorf("read doc %q: invalid slug: %w", slug, ErrNotFound)
	}

	path := filepath.Join(dir, link+ext)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read doc %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read doc %s: %w", path, err)
	}

	meta, body, err := markdown.SplitFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("read doc %s: %w", path, err)
	}

	return &Doc{Link: link, Meta: meta, Content: body}, nil
}

// ReadAll reads every markdown document in dir, in directory order.
func ReadAll(dir string) ([]*Doc, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	var docs []*Doc
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		doc, err := ReadDoc(dir, e.Name())
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// readDir lists dir without hidden entries. A missing dir maps to ErrNotFound.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read dir %s: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	visible := entries[:0]
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		visible = append(visible, e)
	}
	return visible, nil
}
