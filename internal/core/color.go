package core

// Color represents a foreground color for a screen cell.
// The terminal layer maps these onto ANSI 256-color codes.
type Color uint8

// Colors used by the presenter.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorCyan
	ColorWhite
	ColorBrightGreen
	ColorBrightYellow
	ColorOrange
	ColorGray
)
