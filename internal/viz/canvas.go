package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBase = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in dots, so it is twice as
// wide and four times as tall in dots as in cells.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	cells := make([]rune, w*h)
	grid := make([][]rune, h)
	for row := range grid {
		grid[row] = cells[row*w : (row+1)*w]
	}
	c := &Canvas{Width: w, Height: h, Grid: grid}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if c.inside(x, y) {
		c.Grid[y/4][x/2] |= pixelMap[y%4][x%2]
	}
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	return c.inside(x, y) && c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x/2 < c.Width && y/4 < c.Height
}

func (c *Canvas) Clear() {
	for _, row := range c.Grid {
		for col := range row {
			row[col] = brailleBase
		}
	}
}

// DrawLine steps from (x0, y0) to (x1, y1) one dot at a time along the
// longer axis.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	steps := max(absInt(x1-x0), absInt(y1-y0))
	if steps == 0 {
		c.Set(x0, y0)
		return
	}
	fx := float64(x1-x0) / float64(steps)
	fy := float64(y1-y0) / float64(steps)
	for i := 0; i <= steps; i++ {
		t := float64(i)
		c.Set(x0+int(math.Round(fx*t)), y0+int(math.Round(fy*t)))
	}
}

// DrawDot draws a 2x2 block with (x, y) at its top left.
func (c *Canvas) DrawDot(x, y int) {
	c.Set(x, y)
	c.Set(x+1, y)
	c.Set(x, y+1)
	c.Set(x+1, y+1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
