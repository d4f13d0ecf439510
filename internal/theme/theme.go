// internal/theme/theme.go
package theme

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tidemark/internal/logger"
)

// Theme maps style names to terminal styles. Names with a dot fall back to
// the part before the dot, then to "Default".
type Theme struct {
	Name   string
	IsDark bool
	Styles map[string]tcell.Style
}

// GetStyle looks up name with base-name and Default fallbacks.
func (t *Theme) GetStyle(name string) tcell.Style {
	if style, ok := t.Styles[name]; ok {
		return style
	}

	if dotIndex := strings.Index(name, "."); dotIndex != -1 {
		baseName := name[:dotIndex]
		if style, ok := t.Styles[baseName]; ok {
			return style
		}
	}

	if defStyle, ok := t.Styles["Default"]; ok {
		return defStyle
	}

	logger.Warnf("Theme '%s': Style '%s' and 'Default' style not found, using tcell default.", t.Name, name)
	return tcell.StyleDefault
}

// --- Built-in themes ---

// TidemarkDark is the default theme.
var TidemarkDark = newTidemarkDark()

// TidemarkLight suits light terminal backgrounds.
var TidemarkLight = newTidemarkLight()

func newTidemarkDark() Theme {
	bg := tcell.NewHexColor(0x2a2f38)
	fg := tcell.NewHexColor(0xc5cdd9)
	dim := tcell.NewHexColor(0x5c6370)
	orange := tcell.NewHexColor(0xd19a66)
	yellow := tcell.NewHexColor(0xe5c07b)
	green := tcell.NewHexColor(0x98c379)
	cyan := tcell.NewHexColor(0x56b6c2)
	blue := tcell.NewHexColor(0x61afef)
	magenta := tcell.NewHexColor(0xc678dd)

	base := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(fg)
	return Theme{
		Name:   "Tidemark Dark",
		IsDark: true,
		Styles: documentStyles(base, bg, fg, dim, orange, yellow, green, cyan, blue, magenta),
	}
}

func newTidemarkLight() Theme {
	bg := tcell.NewHexColor(0xe5e9f0)
	fg := tcell.NewHexColor(0x2e3440)
	dim := tcell.NewHexColor(0x8a93a5)
	orange := tcell.NewHexColor(0xb4603a)
	yellow := tcell.NewHexColor(0x9a7400)
	green := tcell.NewHexColor(0x4f7a28)
	cyan := tcell.NewHexColor(0x1d7d87)
	blue := tcell.NewHexColor(0x2f5fb3)
	magenta := tcell.NewHexColor(0x8f3fa8)

	base := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(fg)
	return Theme{
		Name:   "Tidemark Light",
		IsDark: false,
		Styles: documentStyles(base, bg, fg, dim, orange, yellow, green, cyan, blue, magenta),
	}
}

func documentStyles(base tcell.Style, bg, fg, dim, orange, yellow, green, cyan, blue, magenta tcell.Color) map[string]tcell.Style {
	bar := tcell.StyleDefault.Background(bg).Foreground(fg)
	return map[string]tcell.Style{
		// --- Document ---
		"Default":      base,
		"Selection":    base.Reverse(true),
		"Placeholder":  base.Foreground(dim).Italic(true),
		"Heading1":     base.Foreground(blue).Bold(true).Underline(true),
		"Heading2":     base.Foreground(blue).Bold(true),
		"Heading3":     base.Foreground(cyan).Bold(true),
		"Quote":        base.Foreground(dim).Italic(true),
		"ListMarker":   base.Foreground(orange),
		"Checked":      base.Foreground(dim).StrikeThrough(true),
		"Divider":      base.Foreground(dim),
		"Table":        base.Foreground(dim),
		"Widget":       base.Foreground(magenta).Bold(true),
		"Widget.block": base.Foreground(yellow),

		// --- Inline marks ---
		"Mark.bold":      base.Bold(true),
		"Mark.italic":    base.Italic(true),
		"Mark.underline": base.Underline(true),
		"Mark.strike":    base.StrikeThrough(true),
		"Mark.code":      base.Foreground(green),
		"Mark.link":      base.Foreground(cyan).Underline(true),

		// --- Chrome ---
		"StatusBar":         bar,
		"StatusBarModified": bar.Foreground(yellow),
		"StatusBarMessage":  bar.Bold(true),
		"StatusBarSegment":  bar.Foreground(dim),
		"Palette":           bar,
		"PaletteSelected":   bar.Reverse(true),
		"PaletteMatch":      bar.Foreground(orange).Bold(true),
		"PaletteCategory":   bar.Foreground(dim),
		"Dialog":            bar.Foreground(green).Bold(true),
		"DialogInput":       bar,
	}
}
