package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/integrators"
	"github.com/san-kum/evosim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should render nothing")
	}

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 10)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatalf("malformed svg:\n%s", svg)
	}
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if !strings.Contains(svg, `cx="35.0" cy="35.0"`) {
		t.Errorf("dot (3, 3) misplaced:\n%s", svg)
	}
}

func TestTrackToSVG(t *testing.T) {
	if TrackToSVG([]Point{{0, 0}}, 100, 100, "#fff") != "" {
		t.Error("a single point is not a track")
	}

	svg := TrackToSVG([]Point{{0, 0}, {1, 0}, {2, 0.5}}, 200, 100, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("stroke color missing")
	}
	if got := strings.Count(svg, " L"); got != 2 {
		t.Errorf("expected 2 line segments, got %d", got)
	}
}

func TestTrack(t *testing.T) {
	params := creature.DefaultParams()
	species := creature.NewSpecies(21, params, integrators.NewMidpoint())
	var c creature.Creature
	species.Randomize(&c)

	points := Track(species.Simulator, &c, 2, 0.1)
	if len(points) < 20 {
		t.Fatalf("expected at least 20 samples, got %d", len(points))
	}
	if c.Clock != 0 {
		t.Errorf("creature not reset after tracking, clock %v", c.Clock)
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, &c, 4); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<circle") {
		t.Error("snapshot drew nothing")
	}
}
