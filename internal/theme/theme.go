package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette of the terminal finder.
type Theme struct {
	Accent lipgloss.Color
	Subtle lipgloss.Color
	Text   lipgloss.Color
	Dim    lipgloss.Color
	Border lipgloss.Color
	Error  lipgloss.Color
}

// DefaultTheme returns the dark palette (catppuccin-inspired).
func DefaultTheme() Theme {
	return Theme{
		Accent: lipgloss.Color("#cba6f7"),
		Subtle: lipgloss.Color("#6c7086"),
		Text:   lipgloss.Color("#cdd6f4"),
		Dim:    lipgloss.Color("#585b70"),
		Border: lipgloss.Color("#45475a"),
		Error:  lipgloss.Color("#f38ba8"),
	}
}

// LightTheme returns the palette for light terminals (catppuccin latte).
func LightTheme() Theme {
	return Theme{
		Accent: lipgloss.Color("#8839ef"),
		Subtle: lipgloss.Color("#9ca0b0"),
		Text:   lipgloss.Color("#4c4f69"),
		Dim:    lipgloss.Color("#acb0be"),
		Border: lipgloss.Color("#ccd0da"),
		Error:  lipgloss.Color("#d20f39"),
	}
}

// ForBackground picks the palette that suits the terminal background.
func ForBackground(dark bool) Theme {
	if dark {
		return DefaultTheme()
	}
	return LightTheme()
}
