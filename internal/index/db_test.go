package index

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pfassina/coursesite/internal/course"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenMemory(t *testing.T) {
	db := openMemory(t)

	id, err := db.UpsertDocument(Document{
		Link: "/swift/intro", Category: "swift", DirName: "swift", Name: "intro",
		Title: "Intro", Hash: "abc123", ModTime: 1000, Size: 42,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	if err := db.UpdateFTS(id, "Intro", "Hello world content", "Heading 1"); err != nil {
		t.Fatal(err)
	}

	results, err := db.Search("world", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Link != "/swift/intro" {
		t.Errorf("link: got %q, want %q", results[0].Link, "/swift/intro")
	}

	// Upserting the same link keeps the id.
	again, err := db.UpsertDocument(Document{Link: "/swift/intro", Category: "swift", DirName: "swift", Name: "intro", Hash: "def"})
	if err != nil {
		t.Fatal(err)
	}
	if again != id {
		t.Errorf("id changed on upsert: %d -> %d", id, again)
	}
	if h, _ := db.DocumentHash("/swift/intro"); h != "def" {
		t.Errorf("hash: got %q", h)
	}
}

func TestSearch_QuotesOperators(t *testing.T) {
	db := openMemory(t)
	id, _ := db.UpsertDocument(Document{Link: "/go/chan", DirName: "go", Name: "chan", Title: "Channels"})
	db.UpdateFTS(id, "Channels", "select NOT close", "")

	for _, q := range []string{"NOT", `"close`, "chan", "sel clo"} {
		results, err := db.Search(q, 10)
		if err != nil {
			t.Errorf("Search(%q): %v", q, err)
			continue
		}
		if len(results) != 1 {
			t.Errorf("Search(%q): got %d results", q, len(results))
		}
	}

	if results, err := db.Search("   ", 10); err != nil || results != nil {
		t.Errorf("blank query: got %v, %v", results, err)
	}
}

func TestSearchTitles(t *testing.T) {
	db := openMemory(t)
	db.UpsertDocument(Document{Link: "/swift/intro", DirName: "swift", Name: "intro", Title: "Introduction"})
	db.UpsertDocument(Document{Link: "/swift/optionals", DirName: "swift", Name: "optionals", Title: "Optionals"})

	results, err := db.SearchTitles("intro", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Link != "/swift/intro" {
		t.Fatalf("got %+v", results)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := openMemory(t)
	id, _ := db.UpsertDocument(Document{Link: "/a/b", DirName: "a", Name: "b"})
	db.UpdateFTS(id, "B", "removable", "")
	db.InsertHeading(id, 1, "B", 0)

	if err := db.DeleteDocument("/a/b"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteDocument("/a/b"); err != nil {
		t.Errorf("deleting twice: %v", err)
	}
	if results, _ := db.Search("removable", 10); len(results) != 0 {
		t.Errorf("fts row survived: %+v", results)
	}
	if headings, _ := db.SearchHeadings("B", 10); len(headings) != 0 {
		t.Errorf("headings survived: %+v", headings)
	}
}

func TestIndexer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "swift", "intro.md"), "---\ntitle: Introduction\n---\n# Welcome\n\nSwift is fast.\n\n## Setup\n")
	writeFile(t, filepath.Join(root, "swift", "Getting Started.md"), "# Start\n\nInstall Xcode.\n")
	writeFile(t, filepath.Join(root, "swift", "logo.png"), "binary")
	writeFile(t, filepath.Join(root, "go", "chan.md"), "# Channels\n")

	db := openMemory(t)
	idx := NewIndexer(db, root, nil)
	if err := idx.IndexAll(); err != nil {
		t.Fatal(err)
	}

	links, err := db.IndexedLinks()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/go/chan", "/swift/GettingStarted", "/swift/intro"}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("indexed: got %v, want %v", links, want)
	}

	results, err := db.Search("xcode", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Link != "/swift/GettingStarted" || results[0].Title != "Start" {
		t.Errorf("search: got %+v", results)
	}

	headings, err := db.SearchHeadings("Setup", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(headings) != 1 || headings[0].Level != 2 || headings[0].Link != "/swift/intro" {
		t.Errorf("headings: got %+v", headings)
	}

	// The store yields the same slug index as the filesystem.
	fromDisk, err := course.Links(root, "swift")
	if err != nil {
		t.Fatal(err)
	}
	var mdOnly []course.Link
	for _, l := range fromDisk {
		if l.Name != "logo.png" {
			mdOnly = append(mdOnly, l)
		}
	}
	fromDB, err := db.Links("swift")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromDB, mdOnly) {
		t.Errorf("links: db %v, disk %v", fromDB, mdOnly)
	}
}

func TestIndexer_IncrementalAndPrune(t *testing.T) {
	root := t.TempDir()
	intro := filepath.Join(root, "swift", "intro.md")
	closures := filepath.Join(root, "swift", "closures.md")
	writeFile(t, intro, "# Intro\n")
	writeFile(t, closures, "# Closures\n")

	db := openMemory(t)
	idx := NewIndexer(db, root, nil)
	if err := idx.IndexAll(); err != nil {
		t.Fatal(err)
	}

	writeFile(t, intro, "# Intro\n\nNow with generics.\n")
	if err := idx.IndexFile(intro); err != nil {
		t.Fatal(err)
	}
	if results, _ := db.Search("generics", 10); len(results) != 1 {
		t.Errorf("reindex: got %+v", results)
	}

	if err := idx.RemoveFile(intro); err != nil {
		t.Fatal(err)
	}
	if results, _ := db.Search("generics", 10); len(results) != 0 {
		t.Errorf("remove: got %+v", results)
	}

	if err := os.Remove(closures); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexAll(); err != nil {
		t.Fatal(err)
	}
	links, _ := db.IndexedLinks()
	if !reflect.DeepEqual(links, []string{"/swift/intro"}) {
		t.Errorf("prune: got %v", links)
	}

	// Files outside a category are ignored.
	if err := idx.IndexFile(filepath.Join(root, "README.md")); err != nil {
		t.Errorf("root file: %v", err)
	}
}

func TestIndexer_ContinuesPastBadDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x", "bad.md"), "---\ntitle: [unclosed\n---\n")
	writeFile(t, filepath.Join(root, "x", "good.md"), "# Good\n")

	db := openMemory(t)
	if err := NewIndexer(db, root, nil).IndexAll(); err == nil {
		t.Error("expected error for malformed document")
	}
	if links, _ := db.IndexedLinks(); !reflect.DeepEqual(links, []string{"/x/good"}) {
		t.Errorf("got %v", links)
	}
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "swift", "intro.md"), "# Intro\n")

	db := openMemory(t)
	idx := NewIndexer(db, root, nil)
	if err := idx.IndexAll(); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 8)
	w, err := NewWatcher(idx, root, nil, func(path string) { changed <- path })
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	t.Cleanup(func() { _ = w.Stop() })

	path := filepath.Join(root, "swift", "protocols.md")
	writeFile(t, path, "# Protocols\n\nConformance rules.\n")

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("changed: got %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	if results, _ := db.Search("conformance", 10); len(results) != 1 {
		t.Errorf("watcher did not index new file: %+v", results)
	}
}
