package index

import (
	"database/sql"
	"strings"

	"github.com/pfassina/coursesite/internal/course"
)

// SearchResult represents a single search result.
type SearchResult struct {
	ID    int64
	Link  string
	Title string
	Rank  float64
}

// HeadingResult represents a heading in a document.
type HeadingResult struct {
	DocumentID int64
	Link       string
	Level      int
	Text       string
	Position   int
}

// Search performs a full-text search across documents. Each word of query
// is matched as a prefix; FTS operators in the input are treated as text.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := db.conn.Query(`
		SELECT d.id, d.link, d.title, rank
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.rowid
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// SearchTitles matches query against titles and file names (for the finder).
func (db *DB) SearchTitles(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	pattern := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, link, title, 0 as rank
		FROM documents
		WHERE name LIKE ? OR title LIKE ?
		ORDER BY link
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// Links returns the slug index of one category directory from the store,
// in the same shape course.Links produces from disk.
func (db *DB) Links(dirName string) ([]course.Link, error) {
	rows, err := db.conn.Query(`
		SELECT dir_name, name
		FROM documents
		WHERE dir_name = ?
		ORDER BY name
	`, dirName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var links []course.Link
	for rows.Next() {
		var dir, name string
		if err := rows.Scan(&dir, &name); err != nil {
			return nil, err
		}
		links = append(links, course.Link{Link: "/" + dir + "/" + name, Name: name})
	}
	return links, rows.Err()
}

// SearchHeadings searches headings across all documents.
func (db *DB) SearchHeadings(query string, limit int) ([]HeadingResult, error) {
	if limit <= 0 {
		limit = 50
	}

	pattern := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT h.document_id, d.link, h.level, h.text, h.position
		FROM headings h
		JOIN documents d ON d.id = h.document_id
		WHERE h.text LIKE ?
		ORDER BY d.link, h.position
		LIMIT ?
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []HeadingResult
	for rows.Next() {
		var r HeadingResult
		if err := rows.Scan(&r.DocumentID, &r.Link, &r.Level, &r.Text, &r.Position); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Link, &r.Title, &r.Rank); err != nil {
			_ = rows.Close()
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return results, nil
}

// ftsQuery quotes every word of q as an FTS5 prefix term.
func ftsQuery(q string) string {
	words := strings.Fields(q)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"*`
	}
	return strings.Join(words, " ")
}
