package flappy

import (
	"fmt"
	"math"

	"github.com/vovakirdan/flappy-gym/internal/core"
)

// Layer classifies what occupies a raster cell.
type Layer uint8

const (
	LayerEmpty Layer = iota
	LayerGround
	LayerPipe
	LayerPlayer
)

// Visual characters for rendering
const (
	PipeChar      = '█'
	PipeCapTop    = '▀'
	PipeCapBottom = '▄'
	GroundChar    = '═'
	GroundStripe  = '╱'
)

// wingGlyphs is indexed by Player.AnimIndex.
var wingGlyphs = [...]rune{'^', '-', 'v'}

// Raster is a cols×rows grid of layers, row-major.
type Raster struct {
	Cols, Rows int
	Cells      []Layer
}

// At returns the layer at (x, y), or LayerEmpty when out of bounds.
func (r Raster) At(x, y int) Layer {
	if x < 0 || x >= r.Cols || y < 0 || y >= r.Rows {
		return LayerEmpty
	}
	return r.Cells[y*r.Cols+x]
}

func (r Raster) fill(x0, y0, x1, y1 int, l Layer) {
	x0, x1 = core.Clamp(x0, 0, r.Cols), core.Clamp(x1, 0, r.Cols)
	y0, y1 = core.Clamp(y0, 0, r.Rows), core.Clamp(y1, 0, r.Rows)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r.Cells[y*r.Cols+x] = l
		}
	}
}

// Rasterize scales the snapshot's world onto a cols×rows grid.
// Later layers paint over earlier ones: ground, pipes, then the player.
func Rasterize(sn Snapshot, cols, rows int) Raster {
	r := Raster{Cols: cols, Rows: rows, Cells: make([]Layer, cols*rows)}
	if cols <= 0 || rows <= 0 || sn.World.Width <= 0 || sn.World.Height <= 0 {
		return r
	}

	sx := float64(cols) / sn.World.Width
	sy := float64(rows) / sn.World.Height
	col := func(x float64) int { return int(math.Floor(x * sx)) }
	row := func(y float64) int { return int(math.Floor(y * sy)) }

	groundRow := row(sn.Ground.Y)
	r.fill(0, groundRow, cols, rows, LayerGround)

	for _, p := range sn.Pairs {
		x0, x1 := col(p.X), col(p.X+sn.Dims.PipeWidth)
		x1 = core.Max(x1, x0+1)
		up, low := sn.UpperRect(p), sn.LowerRect(p)
		r.fill(x0, row(up.Y), x1, row(p.GapY), LayerPipe)
		r.fill(x0, row(low.Y), x1, core.Min(row(low.Bottom()), groundRow), LayerPipe)
	}

	pr := sn.PlayerRect()
	px0, py0 := col(pr.X), row(pr.Y)
	px1 := core.Max(col(pr.Right()), px0+1)
	py1 := core.Max(row(pr.Bottom()), py0+1)
	r.fill(px0, py0, px1, py1, LayerPlayer)

	return r
}

// Render draws the snapshot onto dst, scaled to the screen size.
func Render(dst *core.Screen, sn Snapshot) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()
	r := Rasterize(sn, w, h)

	// Ground stripes scroll with the offset
	shift := 0
	if sn.World.Width > 0 {
		shift = int(math.Floor(-sn.Ground.X * float64(w) / sn.World.Width))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch r.At(x, y) {
			case LayerGround:
				ch := GroundChar
				if (x+shift)%4 == 0 && r.At(x, y-1) == LayerGround {
					ch = GroundStripe
				}
				dst.SetColor(x, y, ch, core.ColorOrange)
			case LayerPipe:
				ch := PipeChar
				if r.At(x, y+1) == LayerEmpty || r.At(x, y+1) == LayerPlayer {
					ch = PipeCapTop
				} else if r.At(x, y-1) == LayerEmpty || r.At(x, y-1) == LayerPlayer {
					ch = PipeCapBottom
				}
				dst.SetColor(x, y, ch, core.ColorGreen)
			}
		}
	}

	drawPlayer(dst, sn, r)

	scoreText := fmt.Sprintf(" %d ", sn.Score)
	dst.DrawTextCentered(0, scoreText)
}

// drawPlayer paints the body glyph by rotation and a wing by animation frame.
func drawPlayer(dst *core.Screen, sn Snapshot, r Raster) {
	body := '►'
	switch {
	case sn.Player.Rotation > 0:
		body = '◥'
	case sn.Player.Rotation < -45:
		body = '◢'
	}

	color := core.ColorBrightYellow
	if !sn.Alive {
		color = core.ColorRed
	}

	var cells [][2]int
	for y := 0; y < r.Rows; y++ {
		for x := 0; x < r.Cols; x++ {
			if r.At(x, y) == LayerPlayer {
				cells = append(cells, [2]int{x, y})
			}
		}
	}

	for i, c := range cells {
		ch := body
		// The wing only fits when the body spans more than one cell
		if i == 0 && len(cells) > 1 {
			ch = wingGlyphs[sn.Player.AnimIndex%len(wingGlyphs)]
		}
		dst.SetColor(c[0], c[1], ch, color)
	}
}
