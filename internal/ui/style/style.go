// Package style provides shared styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

// Color is a hex color usable with termenv.RGBColor.
type Color string

// Brand Colors.
const (
	Indigo Color = "#6366F1"
	Slate  Color = "#667085"
	Ink    Color = "#0B0F19"
	Green  Color = "#22A06B"
	Red    Color = "#D93025"
	Yellow Color = "#F59E0B"
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
)
