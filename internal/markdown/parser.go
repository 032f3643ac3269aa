package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// Node is a top-level block of a converted document.
type Node struct {
	Kind     string // goldmark kind name: "Heading", "Paragraph", "FencedCodeBlock", ...
	Level    int    // heading level, 0 for other kinds
	Text     string
	Language string // fenced code only
}

// RenderTree is sanitized HTML plus the block outline it was rendered from.
type RenderTree struct {
	HTML  template.HTML
	Nodes []Node
}

// Empty reports whether the tree has no content.
func (rt *RenderTree) Empty() bool {
	return rt == nil || (rt.HTML == "" && len(rt.Nodes) == 0)
}

// Headings returns the heading nodes in document order.
func (rt *RenderTree) Headings() []Node {
	var out []Node
	for _, n := range rt.Nodes {
		if n.Kind == ast.KindHeading.String() {
			out = append(out, n)
		}
	}
	return out
}

// Title returns the text of the first level-1 heading, if any.
func (rt *RenderTree) Title() string {
	for _, h := range rt.Headings() {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// PlainText joins the text of every block, for search indexing.
func (rt *RenderTree) PlainText() string {
	if rt == nil {
		return ""
	}
	parts := make([]string, 0, len(rt.Nodes))
	for _, n := range rt.Nodes {
		if n.Text != "" {
			parts = append(parts, n.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Options tunes a Converter.
type Options struct {
	Style     string // chroma style name, only used for the generated stylesheet
	HardWraps bool
}

// Option mutates Options.
type Option func(*Options)

// WithStyle selects the chroma style.
func WithStyle(name string) Option {
	return func(o *Options) { o.Style = name }
}

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps() Option {
	return func(o *Options) { o.HardWraps = true }
}

// Converter turns markdown into a RenderTree. It holds no per-call state and
// may be shared between goroutines.
type Converter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	opts   Options
}

var (
	classAttr = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)
	idAttr    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// NewConverter returns a Converter using the "github" highlight style unless
// an option overrides it.
func NewConverter(options ...Option) *Converter {
	opts := Options{Style: "github"}
	for _, o := range options {
		o(&opts)
	}

	mdOpts := []goldmark.Option{
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(opts.Style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if opts.HardWraps {
		mdOpts = append(mdOpts, goldmark.WithRendererOptions(html.WithHardWraps()))
	}

	return &Converter{
		md:     goldmark.New(mdOpts...),
		policy: newPolicy(),
		opts:   opts,
	}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classAttr).OnElements("pre", "code", "span", "div")
	p.AllowAttrs("id").Matching(idAttr).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	return p
}

// Convert parses src once, renders it through the highlighter and sanitizes
// the result. Empty input yields an empty tree.
func (c *Converter) Convert(src []byte) (*RenderTree, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return &RenderTree{}, nil
	}

	doc := c.md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	return &RenderTree{
		HTML:  template.HTML(c.policy.SanitizeBytes(buf.Bytes())),
		Nodes: outline(doc, src),
	}, nil
}

// Sanitize applies the converter's HTML policy to markup produced elsewhere,
// such as CMS post bodies.
func (c *Converter) Sanitize(markup string) template.HTML {
	return template.HTML(c.policy.Sanitize(markup))
}

// Stylesheet returns the CSS for the configured highlight style.
func (c *Converter) Stylesheet() (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(c.opts.Style)); err != nil {
		return "", fmt.Errorf("write highlight css: %w", err)
	}
	return buf.String(), nil
}

func outline(doc ast.Node, src []byte) []Node {
	var nodes []Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		node := Node{Kind: n.Kind().String()}
		switch v := n.(type) {
		case *ast.Heading:
			node.Level = v.Level
			node.Text = inlineText(v, src)
		case *ast.FencedCodeBlock:
			node.Language = string(v.Language(src))
			node.Text = blockText(v, src)
		case *ast.CodeBlock:
			node.Text = blockText(v, src)
		default:
			node.Text = inlineText(v, src)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c != n && c.Type() == ast.TypeBlock && b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func blockText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
