package markdown

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedFrontMatter is returned when a document opens a front-matter
// block that is unclosed or does not decode to key/value pairs.
var ErrMalformedFrontMatter = errors.New("malformed front-matter")

const delimiter = "---"

// SplitFrontMatter separates the --- delimited YAML block at the top of a
// markdown file from its body. Files without a leading block return an empty
// meta map and the whole input as body.
func SplitFrontMatter(src []byte) (map[string]any, string, error) {
	raw := strings.TrimPrefix(string(src), "\ufeff")
	lines := strings.Split(raw, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return map[string]any{}, raw, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, "", fmt.Errorf("%w: missing closing %s", ErrMalformedFrontMatter, delimiter)
	}

	meta := map[string]any{}
	block := strings.Join(lines[1:end], "\n")
	if strings.TrimSpace(block) != "" {
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
		}
		if meta == nil {
			meta = map[string]any{}
		}
	}

	return meta, strings.Join(lines[end+1:], "\n"), nil
}

// MetaString returns meta[key] when it holds a non-empty string.
func MetaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return strings.TrimSpace(s)
}

// MetaStrings returns meta[key] as a string slice. It accepts a YAML list or
// a comma separated string ("go, web").
func MetaStrings(meta map[string]any, key string) []string {
	var out []string
	switch v := meta[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(strings.Trim(v, "[]"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
