package markdown

import (
	"strings"
	"testing"
)

func TestConvert_Empty(t *testing.T) {
	c := NewConverter()
	for _, input := range []string{"", "\n\n  \n"} {
		tree, err := c.Convert([]byte(input))
		if err != nil {
			t.Fatalf("Convert(%q): %v", input, err)
		}
		if !tree.Empty() {
			t.Errorf("Convert(%q): expected empty tree, got %+v", input, tree)
		}
	}
}

func TestConvert_SingleHeading(t *testing.T) {
	c := NewConverter()
	for level := 1; level <= 6; level++ {
		src := strings.Repeat("#", level) + " Getting Started\n"
		tree, err := c.Convert([]byte(src))
		if err != nil {
			t.Fatal(err)
		}
		if len(tree.Nodes) != 1 {
			t.Fatalf("level %d: got %d nodes, want 1", level, len(tree.Nodes))
		}
		n := tree.Nodes[0]
		if n.Kind != "Heading" || n.Level != level || n.Text != "Getting Started" {
			t.Errorf("level %d: got %+v", level, n)
		}
	}
}

func TestConvert_Constructs(t *testing.T) {
	src := "# Swift\n\n" +
		"Read the [docs](https://swift.org).\n\n" +
		"- one\n- two\n\n" +
		"![logo](/img/swift.png)\n\n" +
		"```swift\nlet x = 1\n```\n"

	tree, err := NewConverter().Convert([]byte(src))
	if err != nil {
		t.Fatal(err)
	}

	html := string(tree.HTML)
	for _, want := range []string{
		`<h1 id="swift">Swift</h1>`,
		`href="https://swift.org"`,
		"<li>one</li>",
		`src="/img/swift.png"`,
		`class="chroma"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in:\n%s", want, html)
		}
	}

	kinds := make([]string, len(tree.Nodes))
	for i, n := range tree.Nodes {
		kinds[i] = n.Kind
	}
	want := []string{"Heading", "Paragraph", "List", "Paragraph", "FencedCodeBlock"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("kinds: got %v, want %v", kinds, want)
	}

	code := tree.Nodes[4]
	if code.Language != "swift" || code.Text != "let x = 1\n" {
		t.Errorf("code node: got %+v", code)
	}
	if tree.Title() != "Swift" {
		t.Errorf("title: got %q", tree.Title())
	}
}

func TestConvert_NeutralizesScripts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		deny  string
	}{
		{"script block", "<script>alert(1)</script>\n\ntext", "<script"},
		{"inline script", "hello <script>alert(1)</script> world", "<script"},
		{"event handler", `<img src="x" onerror="alert(1)">`, "onerror"},
		{"javascript link", "[click](javascript:alert(1))", "javascript:"},
	}

	c := NewConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := c.Convert([]byte(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			if strings.Contains(strings.ToLower(string(tree.HTML)), tt.deny) {
				t.Errorf("output still contains %q: %s", tt.deny, tree.HTML)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	c := NewConverter()
	got := string(c.Sanitize(`<p onclick="x()">hi</p><script>bad()</script>`))
	if got != "<p>hi</p>" {
		t.Errorf("got %q", got)
	}
}

func TestStylesheet(t *testing.T) {
	css, err := NewConverter(WithStyle("monokai")).Stylesheet()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Errorf("stylesheet missing .chroma rules")
	}
}

func TestRenderTree_PlainText(t *testing.T) {
	src := "# Optionals\n\nUse `if let` to unwrap.\n\n- one\n- two\n\n> quoted\n"
	tree, err := NewConverter().Convert([]byte(src))
	if err != nil {
		t.Fatal(err)
	}

	want := "Optionals\nUse if let to unwrap.\none two\nquoted"
	if got := tree.PlainText(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	var empty *RenderTree
	if empty.PlainText() != "" {
		t.Error("nil tree should have no text")
	}
}
