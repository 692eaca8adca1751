package viz

import (
	"math"

	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/vec"
)

// Camera projects world coordinates onto a canvas. It orbits Target, which
// the viewer keeps on the creature's centroid.
type Camera struct {
	Target     vec.Vec3
	Distance   float64
	Near       float64
	RotX, RotY float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 8, Near: 0.1, RotX: 0.35, RotY: -0.5, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.RotX+a)) }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Follow moves the orbit target toward p horizontally. Rate is the fraction
// of the gap closed, 1 snaps.
func (c *Camera) Follow(p vec.Vec3, rate float64) {
	gap := p.Sub(c.Target)
	c.Target = c.Target.Add(vec.New(gap.X, 0, gap.Z).Scale(rate))
}

// RotatePoint turns p around the target, yaw first.
func (c *Camera) RotatePoint(p vec.Vec3) vec.Vec3 {
	p = p.Sub(c.Target)
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project converts world coordinates to canvas dots. It returns the dot
// position and whether the point is in front of the camera and on the canvas.
func (c *Camera) Project(p vec.Vec3, sw, sh int) (int, int, bool) {
	rot := c.RotatePoint(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := float64(min(sw, sh)) / 3.0
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End vec.Vec3
}

// Wireframe is a set of edges and points in world coordinates.
type Wireframe struct {
	Edges  []Edge
	Points []vec.Vec3
}

func NewWireframe() *Wireframe { return &Wireframe{} }

func (w *Wireframe) AddEdge(s, e vec.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p vec.Vec3)   { w.Points = append(w.Points, p) }

func (w *Wireframe) Clear() {
	w.Edges = w.Edges[:0]
	w.Points = w.Points[:0]
}

// Render3D draws the wireframe onto the canvas. Edges with one visible end
// are drawn and clipped by the canvas.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Dots()
	for _, e := range w.Edges {
		x1, y1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, v2 := cam.Project(e.End, cw, ch)
		if v1 || v2 {
			c.DrawLine(x1, y1, x2, y2)
		}
	}
	for _, p := range w.Points {
		if x, y, ok := cam.Project(p, cw, ch); ok {
			c.DrawDot(x, y)
		}
	}
}

// AddCreature adds every muscle as an edge and every node as a point.
func (w *Wireframe) AddCreature(c *creature.Creature) {
	for _, m := range c.AllMuscles() {
		a, b := c.Endpoints(m)
		w.AddEdge(a, b)
	}
	for _, n := range c.AllNodes() {
		w.AddPoint(n.Position)
	}
}

// AddGround adds a floor grid of the given spacing around center, aligned to
// world coordinates so it scrolls as the creature moves.
func (w *Wireframe) AddGround(center vec.Vec3, extent, spacing float64) {
	x0 := math.Floor((center.X-extent)/spacing) * spacing
	z0 := math.Floor((center.Z-extent)/spacing) * spacing
	x1, z1 := center.X+extent, center.Z+extent
	for x := x0; x <= x1; x += spacing {
		w.AddEdge(vec.New(x, 0, z0), vec.New(x, 0, z1))
	}
	for z := z0; z <= z1; z += spacing {
		w.AddEdge(vec.New(x0, 0, z), vec.New(x1, 0, z))
	}
}

// Snapshot draws c on the ground on a new w x h canvas, the camera centered
// on its centroid.
func Snapshot(c *creature.Creature, cam *Camera, w, h int) *Canvas {
	cam.Follow(c.Centroid(), 1)
	wire := NewWireframe()
	wire.AddGround(cam.Target, 3, 0.5)
	wire.AddCreature(c)
	canvas := NewCanvas(w, h)
	Render3D(canvas, wire, cam)
	return canvas
}
