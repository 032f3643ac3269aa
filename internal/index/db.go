package index

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    link TEXT NOT NULL UNIQUE,
    category TEXT NOT NULL,
    dir_name TEXT NOT NULL,
    name TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    mod_time INTEGER NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    hash TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_dir_name ON documents(dir_name);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
    title, content, headings,
    tokenize='porter unicode61 remove_diacritics 2'
);

CREATE TABLE IF NOT EXISTS headings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    level INTEGER NOT NULL,
    text TEXT NOT NULL,
    position INTEGER NOT NULL
);
`

// Document is the stored metadata of one indexed course document.
type Document struct {
	Link     string // route link, "/<category>/<slug>"
	Category string
	DirName  string // category directory as found on disk
	Name     string // file name without ".md"
	Title    string
	Hash     string
	ModTime  int64
	Size     int64
}

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at the given path.
func Open(path string) (*DB, error) {
	return open(path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
}

// OpenMemory opens an in-memory database (for testing).
func OpenMemory() (*DB, error) {
	return open(":memory:?_pragma=foreign_keys(on)")
}

func open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Each new connection to :memory: is a fresh database.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("init schema: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB for advanced queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// UpsertDocument inserts or updates a document and returns its ID.
func (db *DB) UpsertDocument(d Document) (int64, error) {
	_, err := db.conn.Exec(`
		INSERT INTO documents (link, category, dir_name, name, title, mod_time, size, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(link) DO UPDATE SET
			category = excluded.category,
			dir_name = excluded.dir_name,
			name = excluded.name,
			title = excluded.title,
			mod_time = excluded.mod_time,
			size = excluded.size,
			hash = excluded.hash
	`, d.Link, d.Category, d.DirName, d.Name, d.Title, d.ModTime, d.Size, d.Hash)
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.conn.QueryRow("SELECT id FROM documents WHERE link = ?", d.Link).Scan(&id)
	return id, err
}

// UpdateFTS replaces the full-text row for a document.
func (db *DB) UpdateFTS(docID int64, title, content, headings string) error {
	if _, err := db.conn.Exec("DELETE FROM documents_fts WHERE rowid = ?", docID); err != nil {
		return err
	}
	_, err := db.conn.Exec("INSERT INTO documents_fts(rowid, title, content, headings) VALUES(?, ?, ?, ?)",
		docID, title, content, headings)
	return err
}

// InsertHeading adds a heading record.
func (db *DB) InsertHeading(docID int64, level int, text string, position int) error {
	_, err := db.conn.Exec("INSERT INTO headings (document_id, level, text, position) VALUES (?, ?, ?, ?)",
		docID, level, text, position)
	return err
}

// ClearHeadings removes all headings for a document.
func (db *DB) ClearHeadings(docID int64) error {
	_, err := db.conn.Exec("DELETE FROM headings WHERE document_id = ?", docID)
	return err
}

// DocumentHash returns the stored hash for a link, or "" when not indexed.
func (db *DB) DocumentHash(link string) (string, error) {
	var hash string
	err := db.conn.QueryRow("SELECT hash FROM documents WHERE link = ?", link).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// DeleteDocument removes a document and all its related data.
func (db *DB) DeleteDocument(link string) error {
	var id int64
	err := db.conn.QueryRow("SELECT id FROM documents WHERE link = ?", link).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := db.conn.Exec("DELETE FROM documents_fts WHERE rowid = ?", id); err != nil {
		return err
	}
	_, err = db.conn.Exec("DELETE FROM documents WHERE id = ?", id)
	return err
}

// IndexedLinks returns the link of every stored document.
func (db *DB) IndexedLinks() ([]string, error) {
	rows, err := db.conn.Query("SELECT link FROM documents ORDER BY link")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var links []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
