// Package export writes creature renderings as SVG.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/viz"
)

// CanvasToSVG converts a braille canvas to SVG, one circle per dot. Scale is
// the size of a dot cell in SVG units.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.Dots()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for y := range dh {
		for x := range dw {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// Point is a position on the ground plane, X forward and Y sideways.
type Point struct{ X, Y float64 }

// Track plays c's behavior for the given number of periods after settling
// and samples the centroid's ground position every sample seconds. The
// creature is left Reset.
func Track(sim *creature.Simulator, c *creature.Creature, periods int, sample float64) []Point {
	sim.Settle(c)
	total := float64(periods) * sim.Params().BehaviorTime
	points := make([]Point, 0, int(total/sample)+1)

	at := c.Centroid()
	points = append(points, Point{at.X, at.Z})
	for t := 0.0; t < total; t += sample {
		sim.Animate(c, sample)
		at = c.Centroid()
		points = append(points, Point{at.X, at.Z})
	}
	sim.Reset(c)
	return points
}

// TrackToSVG draws points as a polyline scaled to fit width x height, with
// the start marked.
func TrackToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// equal axis scale keeps the path shape
	span := max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	pad := span * 0.1
	minX -= pad
	minY -= pad
	span += 2 * pad
	scale := float64(min(width, height)) / span

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) * scale
		y := float64(height) - (p.Y-minY)*scale
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	start := points[0]
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"#ffffff\"/>\n</svg>\n",
		(start.X-minX)*scale, float64(height)-(start.Y-minY)*scale)
	return sb.String()
}

// WriteSnapshot renders c at rest and writes it as SVG.
func WriteSnapshot(w io.Writer, c *creature.Creature, scale float64) error {
	canvas := viz.Snapshot(c, viz.NewCamera(), 60, 24)
	_, err := io.WriteString(w, CanvasToSVG(canvas, scale))
	return err
}
