package site

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pfassina/coursesite/internal/cms"
	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/index"
	"github.com/pfassina/coursesite/internal/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrUnsafeOutput is returned when the output directory overlaps the content
// directory or is the filesystem root. Builds replace the output directory
// wholesale.
var ErrUnsafeOutput = errors.New("unsafe output directory")

// PostSource is the subset of the CMS client the builder needs.
type PostSource interface {
	HomePosts(ctx context.Context) (*cms.Home, error)
	Post(ctx context.Context, slug string) (*cms.Post, error)
	PostSlugs(ctx context.Context) ([]string, error)
}

// Options configures a Builder.
type Options struct {
	SiteTitle   string
	ContentDir  string
	OutputDir   string
	RoutePrefix string // URL prefix course pages are mounted under, e.g. "/course"
	Workers     int
	SkipFailed  bool // omit failing routes instead of failing the build
}

// Builder generates the static site.
type Builder struct {
	opts      Options
	converter *markdown.Converter
	posts     PostSource
	indexer   *index.Indexer
	logger    *log.Logger
	pages     map[string]*template.Template
}

// New parses the page templates and returns a Builder. converter and logger
// may be nil. The content and output directories are resolved to absolute
// paths; overlapping directories are rejected with ErrUnsafeOutput.
func New(opts Options, converter *markdown.Converter, logger *log.Logger) (*Builder, error) {
	if converter == nil {
		converter = markdown.NewConverter()
	}
	if logger == nil {
		logger = log.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	opts.RoutePrefix = course.MountPrefix(opts.RoutePrefix)

	content, out, err := checkDirs(opts.ContentDir, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	opts.ContentDir, opts.OutputDir = content, out

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Builder{
		opts:      opts,
		converter: converter,
		logger:    logger,
		pages:     pages,
	}, nil
}

// WithPosts adds CMS blog posts and a CMS-driven home page to the build.
func (b *Builder) WithPosts(src PostSource) *Builder {
	b.posts = src
	return b
}

// WithIndexer refreshes the search index after each build.
func (b *Builder) WithIndexer(idx *index.Indexer) *Builder {
	b.indexer = idx
	return b
}

// Skipped is a route left out of the build.
type Skipped struct {
	Route string
	Err   error
}

// Report summarizes a build.
type Report struct {
	Routes   []string // URL path of every generated page, sorted
	Skipped  []Skipped
	Duration time.Duration
}

// Page is the data every template receives.
type Page struct {
	SiteTitle   string
	Title       string
	Description string
	Prefix      string
	Data        any
}

type coursePage struct {
	Category string
	Current  string
	Nav      []course.Link
	Content  template.HTML
}

type postPage struct {
	Post    *cms.Post
	Content template.HTML
}

type homePage struct {
	Posts   []cms.Post
	Courses []categoryView
}

type categoryView struct {
	Category string
	Links    []course.Link
}

// converted is a course route that loaded and converted cleanly.
type converted struct {
	route course.Route
	doc   *course.Doc
	tree  *markdown.RenderTree
}

// run holds the state of one Build call.
type run struct {
	*Builder
	out    string // staging directory pages are written to
	report Report
	mu     sync.Mutex
}

// Build regenerates the site into a staging directory next to the output
// directory and swaps it into place once every page is written. A failed
// build leaves the previous output untouched. Any route error fails the
// build unless SkipFailed is set, in which case the route is omitted and
// recorded in the report.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()

	routes, err := course.Enumerate(b.opts.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", b.opts.ContentDir, err)
	}
	b.logger.Debug("enumerated", "routes", len(routes))

	staging, err := b.stage()
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(staging) }()
	r := &run{Builder: b, out: staging}

	docs, err := r.convertAll(ctx, routes)
	if err != nil {
		return nil, err
	}
	categories := navigation(docs, b.opts.RoutePrefix)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for _, c := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.writeCourse(c, categories[c.route.Category])
		})
	}
	if b.posts != nil {
		r.buildPosts(gctx, g)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := categoryViews(categories)
	if err := r.writeIndexes(docs, views); err != nil {
		return nil, err
	}
	if err := r.writeHome(ctx, views); err != nil {
		return nil, err
	}
	if err := r.writeStylesheet(); err != nil {
		return nil, err
	}
	if err := b.publish(staging); err != nil {
		return nil, err
	}

	if b.indexer != nil {
		if err := b.indexer.IndexAll(); err != nil {
			b.logger.Warn("search index", "err", err)
		}
	}

	sort.Strings(r.report.Routes)
	sort.Slice(r.report.Skipped, func(i, j int) bool { return r.report.Skipped[i].Route < r.report.Skipped[j].Route })
	r.report.Duration = time.Since(start)
	b.logger.Info("built", "pages", len(r.report.Routes), "skipped", len(r.report.Skipped), "took", r.report.Duration.Round(time.Millisecond))
	return &r.report, nil
}

// convertAll loads and converts every route in parallel. The result keeps
// route order and excludes skipped routes.
func (r *run) convertAll(ctx context.Context, routes []course.Route) ([]*converted, error) {
	results := make([]*converted, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, route := range routes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := r.convert(route)
			if err != nil {
				return r.fail(r.opts.RoutePrefix+route.Link(), err)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, c := range results {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *run) convert(route course.Route) (*converted, error) {
	doc, err := route.Load(r.opts.ContentDir)
	if err != nil {
		return nil, err
	}
	tree, err := r.converter.Convert([]byte(doc.Content))
	if err != nil {
		return nil, err
	}
	return &converted{route: route, doc: doc, tree: tree}, nil
}

// fail applies the failure policy to one route.
func (r *run) fail(route string, err error) error {
	if !r.opts.SkipFailed {
		return fmt.Errorf("build %s: %w", route, err)
	}
	r.logger.Warn("skipped", "route", route, "err", err)
	r.mu.Lock()
	r.report.Skipped = append(r.report.Skipped, Skipped{Route: route, Err: err})
	r.mu.Unlock()
	return nil
}

func (r *run) writeCourse(c *converted, nav []course.Link) error {
	url := r.opts.RoutePrefix + c.route.Link()
	return r.render("course.html", url, Page{
		Title:       c.doc.DisplayTitle(c.tree),
		Description: markdown.MetaString(c.doc.Meta, "description"),
		Data: coursePage{
			Category: c.route.Category,
			Current:  url,
			Nav:      nav,
			Content:  c.tree.HTML,
		},
	})
}

// buildPosts schedules one page per CMS post on g.
func (r *run) buildPosts(ctx context.Context, g *errgroup.Group) {
	slugs, err := r.posts.PostSlugs(ctx)
	if err != nil {
		g.Go(func() error { return r.fail("/posts/", err) })
		return
	}
	for _, slug := range slugs {
		url := "/posts/" + slug
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if course.NormalizeSlug(slug) != slug || slug == "." || slug == ".." {
				return r.fail(url, fmt.Errorf("invalid post slug %q", slug))
			}
			post, err := r.posts.Post(ctx, slug)
			if err != nil {
				return r.fail(url, err)
			}
			title := post.SEO.Title
			if title == "" {
				title = post.Title
			}
			return r.render("post.html", url, Page{
				Title:       title,
				Description: post.SEO.MetaDesc,
				Data:        postPage{Post: post, Content: r.converter.Sanitize(post.Content)},
			})
		})
	}
}

func (r *run) writeHome(ctx context.Context, courses []categoryView) error {
	data := homePage{Courses: courses}
	if r.posts != nil {
		home, err := r.posts.HomePosts(ctx)
		if err != nil {
			return r.fail("/", err)
		}
		data.Posts = home.Posts
	}
	return r.render("home.html", "", Page{Data: data})
}

// writeIndexes writes the slug index of every category, the combined
// search index and the course listing page. Entries come from the pages
// that were built, so every link resolves and skipped routes are absent.
func (r *run) writeIndexes(docs []*converted, courses []categoryView) error {
	all := []course.Link{}
	byCategory := make(map[string][]course.Link)
	for _, c := range docs {
		e := c.route.Entry(r.opts.RoutePrefix)
		byCategory[c.route.Category] = append(byCategory[c.route.Category], e)
		all = append(all, e)
	}

	for cat, links := range byCategory {
		path := filepath.Join(r.outPath(r.opts.RoutePrefix+"/"+cat), "links.json")
		if err := writeJSON(path, links); err != nil {
			return err
		}
	}
	if err := writeJSON(filepath.Join(r.out, "search.json"), all); err != nil {
		return err
	}

	return r.render("courses.html", r.opts.RoutePrefix, Page{Title: "Courses", Data: courses})
}

func (r *run) writeStylesheet() error {
	css, err := r.converter.Stylesheet()
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(r.out, "assets", "highlight.css"), []byte(css))
}

// render executes the named page into <out><url>/index.html and records url.
func (r *run) render(name, url string, p Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("no template %s", name)
	}
	p.SiteTitle = r.opts.SiteTitle
	p.Prefix = r.opts.RoutePrefix

	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, "base", p); err != nil {
		return fmt.Errorf("render %s: %w", url, err)
	}
	if err := writeFile(filepath.Join(r.outPath(url), "index.html"), []byte(buf.String())); err != nil {
		return err
	}

	if url == "" {
		url = "/"
	}
	r.mu.Lock()
	r.report.Routes = append(r.report.Routes, url)
	r.mu.Unlock()
	return nil
}

func (r *run) outPath(url string) string {
	return filepath.Join(r.out, filepath.FromSlash(strings.Trim(url, "/")))
}

// stage creates an empty hidden directory beside the output directory.
func (b *Builder) stage() (string, error) {
	parent := filepath.Dir(b.opts.OutputDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", parent, err)
	}
	dir, err := os.MkdirTemp(parent, "."+filepath.Base(b.opts.OutputDir)+"-build-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	if err := os.Chmod(dir, 0755); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// publish moves staging into place as the output directory. The previous
// output is kept until the new one is in place.
func (b *Builder) publish(staging string) error {
	out := b.opts.OutputDir
	old := ""
	if _, err := os.Lstat(out); err == nil {
		old = staging + "-old"
		if err := os.Rename(out, old); err != nil {
			return fmt.Errorf("replace %s: %w", out, err)
		}
	}
	if err := os.Rename(staging, out); err != nil {
		if old != "" {
			_ = os.Rename(old, out)
		}
		return fmt.Errorf("replace %s: %w", out, err)
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			b.logger.Warn("remove previous output", "dir", old, "err", err)
		}
	}
	return nil
}

// checkDirs resolves both directories and rejects an output directory that
// is empty, the filesystem root, or overlaps the content directory in
// either direction.
func checkDirs(contentDir, outputDir string) (string, string, error) {
	if strings.TrimSpace(outputDir) == "" {
		return "", "", fmt.Errorf("%w: no output directory", ErrUnsafeOutput)
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", outputDir, err)
	}
	content, err := filepath.Abs(contentDir)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", contentDir, err)
	}
	if filepath.Dir(out) == out {
		return "", "", fmt.Errorf("%w: %s is the filesystem root", ErrUnsafeOutput, out)
	}
	if within(content, out) {
		return "", "", fmt.Errorf("%w: %s contains the content directory %s", ErrUnsafeOutput, out, content)
	}
	if within(out, content) {
		return "", "", fmt.Errorf("%w: %s is inside the content directory %s", ErrUnsafeOutput, out, content)
	}
	return content, out, nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// navigation groups converted routes by category, as links under prefix.
func navigation(docs []*converted, prefix string) map[string][]course.Link {
	nav := make(map[string][]course.Link)
	for _, c := range docs {
		nav[c.route.Category] = append(nav[c.route.Category], course.Link{
			Link: prefix + c.route.Link(),
			Name: c.doc.DisplayTitle(c.tree),
		})
	}
	return nav
}

func categoryViews(nav map[string][]course.Link) []categoryView {
	views := make([]categoryView, 0, len(nav))
	for cat, links := range nav {
		views = append(views, categoryView{Category: cat, Links: links})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Category < views[j].Category })
	return views
}

func parseTemplates() (map[string]*template.Template, error) {
	caser := cases.Title(language.English)
	funcs := template.FuncMap{
		"title": func(s string) string {
			return caser.String(strings.NewReplacer("-", " ", "_", " ").Replace(s))
		},
	}

	base, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"course.html", "courses.html", "home.html", "post.html"} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = clone
	}
	return pages, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

