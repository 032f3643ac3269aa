package index

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/markdown"
)

// Indexer feeds course documents into the search database.
type Indexer struct {
	db        *DB
	converter *markdown.Converter
	root      string
}

// NewIndexer indexes the course tree at root into db. A nil converter gets
// the default one.
func NewIndexer(db *DB, root string, converter *markdown.Converter) *Indexer {
	if converter == nil {
		converter = markdown.NewConverter()
	}
	return &Indexer{
		db:        db,
		converter: converter,
		root:      root,
	}
}

// IndexAll indexes every markdown route under the content root and drops
// documents whose source no longer exists. A failing document does not stop
// the others; all failures are returned joined.
func (idx *Indexer) IndexAll() error {
	routes, err := course.Enumerate(idx.root)
	if err != nil {
		return err
	}

	live := make(map[string]bool, len(routes))
	var errs []error
	for _, r := range routes {
		if !strings.HasSuffix(r.File, ".md") {
			continue
		}
		live[r.Link()] = true
		if err := idx.IndexRoute(r); err != nil {
			errs = append(errs, err)
		}
	}

	indexed, err := idx.db.IndexedLinks()
	if err != nil {
		return fmt.Errorf("list indexed: %w", err)
	}
	for _, link := range indexed {
		if live[link] {
			continue
		}
		if err := idx.db.DeleteDocument(link); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", link, err))
		}
	}
	return errors.Join(errs...)
}

// IndexFile indexes the document at absPath. Files outside a category
// directory are ignored.
func (idx *Indexer) IndexFile(absPath string) error {
	r, ok := idx.routeFor(absPath)
	if !ok {
		return nil
	}
	return idx.IndexRoute(r)
}

// IndexRoute reads, converts and stores one route. Unchanged files are skipped.
func (idx *Indexer) IndexRoute(r course.Route) error {
	path := filepath.Join(r.Dir(idx.root), r.File)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(content))
	existingHash, _ := idx.db.DocumentHash(r.Link())
	if hash == existingHash {
		return nil
	}

	doc, err := r.Load(idx.root)
	if err != nil {
		return err
	}
	tree, err := idx.converter.Convert([]byte(doc.Content))
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}

	docID, err := idx.db.UpsertDocument(Document{
		Link:     r.Link(),
		Category: r.Category,
		DirName:  r.DirName,
		Name:     strings.TrimSuffix(r.File, ".md"),
		Title:    doc.DisplayTitle(tree),
		Hash:     hash,
		ModTime:  info.ModTime().Unix(),
		Size:     info.Size(),
	})
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	headings := tree.Headings()
	headingTexts := make([]string, len(headings))
	for i, h := range headings {
		headingTexts[i] = h.Text
	}
	if err := idx.db.UpdateFTS(docID, doc.DisplayTitle(tree), tree.PlainText(), strings.Join(headingTexts, " ")); err != nil {
		return fmt.Errorf("update FTS: %w", err)
	}

	if err := idx.db.ClearHeadings(docID); err != nil {
		return fmt.Errorf("clear headings: %w", err)
	}
	for i, h := range headings {
		if err := idx.db.InsertHeading(docID, h.Level, h.Text, i); err != nil {
			return fmt.Errorf("insert heading %q: %w", h.Text, err)
		}
	}
	return nil
}

// RemoveFile removes the document at absPath from the index.
func (idx *Indexer) RemoveFile(absPath string) error {
	r, ok := idx.routeFor(absPath)
	if !ok {
		return nil
	}
	return idx.db.DeleteDocument(r.Link())
}

// routeFor maps "<root>/<category>/<file>" to its route.
func (idx *Indexer) routeFor(absPath string) (course.Route, bool) {
	rel, err := filepath.Rel(idx.root, absPath)
	if err != nil {
		return course.Route{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || !strings.HasSuffix(parts[1], ".md") {
		return course.Route{}, false
	}
	return course.RouteOf(parts[0], parts[1])
}
