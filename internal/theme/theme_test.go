package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemes(t *testing.T) {
	for name, th := range map[string]Theme{"default": DefaultTheme(), "light": LightTheme()} {
		fields := []struct {
			name  string
			color lipgloss.Color
		}{
			{"Accent", th.Accent},
			{"Subtle", th.Subtle},
			{"Text", th.Text},
			{"Dim", th.Dim},
			{"Border", th.Border},
			{"Error", th.Error},
		}

		for _, f := range fields {
			if string(f.color) == "" {
				t.Errorf("%s.%s is empty", name, f.name)
			}
		}
	}
}

func TestForBackground(t *testing.T) {
	if ForBackground(true) != DefaultTheme() {
		t.Error("dark background should use DefaultTheme")
	}
	if ForBackground(false) != LightTheme() {
		t.Error("light background should use LightTheme")
	}
}
