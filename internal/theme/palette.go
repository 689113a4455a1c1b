package theme

// Palette is the colour set handed to templates.
type Palette struct {
	Mode       Mode
	Primary    string
	Secondary  string
	Background string
	Paper      string
	Text       string
	TextMuted  string
	Chart      []string
}

var chartColors = []string{"#304ffe", "#7c4dff", "#ffa726", "#26a69a", "#ec407a", "#42a5f5", "#66bb6a", "#ab47bc"}

// PaletteFor returns the colours for m. Unknown modes get the default.
func PaletteFor(m Mode) Palette {
	switch m {
	case Light:
		return Palette{
			Mode:       Light,
			Primary:    "#1976d2",
			Secondary:  "#dc004e",
			Background: "#f5f5f5",
			Paper:      "#ffffff",
			Text:       "#1a237e",
			TextMuted:  "#555555",
			Chart:      chartColors,
		}
	default:
		return Palette{
			Mode:       Dark,
			Primary:    "#90caf9",
			Secondary:  "#f48fb1",
			Background: "#0a1929",
			Paper:      "#132f4c",
			Text:       "#ffffff",
			TextMuted:  "#b2bac2",
			Chart:      chartColors,
		}
	}
}

// ChartColor cycles through the chart colours.
func (p Palette) ChartColor(i int) string {
	if len(p.Chart) == 0 {
		return p.Primary
	}
	return p.Chart[i%len(p.Chart)]
}
