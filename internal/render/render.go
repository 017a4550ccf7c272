// Package render draws 2D structure depictions as PNG images.
//
// Coordinates come from a deterministic layout (BFS placement plus a fixed
// number of force refinement steps), so a molecule always renders to the
// same bytes. Arrow annotations can be overlaid as curved arrows between
// reactant atoms.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"math"
	"strconv"

	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/molecule"
)

// Default canvas size, matching the web client's image slot.
const (
	DefaultWidth  = 350
	DefaultHeight = 250
)

const (
	margin        = 24.0
	maxBondPixels = 40.0
	bondWidth     = 1.6
	bondSpacing   = 3.5
	labelTrim     = 8.0
	arrowWidth    = 2.0
	arrowHead     = 8.0
	arrowSegments = 24
)

// ErrNilMolecule is returned when Render is given no molecule.
var ErrNilMolecule = errors.New("render: nil molecule")

// Renderer draws molecules onto a fixed-size canvas.
type Renderer struct {
	width  int
	height int
}

// New creates a Renderer for a width x height canvas.
func New(width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid canvas size %dx%d", width, height)
	}
	return &Renderer{width: width, height: height}, nil
}

// Size returns the canvas dimensions.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Render draws m with optional arrow overlays and returns PNG bytes.
func (r *Renderer) Render(m *molecule.Molecule, arrows ...ir.ArrowAnnotation) ([]byte, error) {
	return Render(m, r.width, r.height, arrows...)
}

// Render draws m on a width x height canvas and returns PNG bytes. Each
// arrow must reference atoms of m.
func Render(m *molecule.Molecule, width, height int, arrows ...ir.ArrowAnnotation) ([]byte, error) {
	if m == nil {
		return nil, ErrNilMolecule
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid canvas size %dx%d", width, height)
	}
	for i, a := range arrows {
		if a.StartAtom < 0 || a.StartAtom >= m.NumAtoms() || a.EndAtom < 0 || a.EndAtom >= m.NumAtoms() {
			return nil, fmt.Errorf("render: arrow %d (%d -> %d) outside molecule of %d atoms", i, a.StartAtom, a.EndAtom, m.NumAtoms())
		}
	}

	c := newCanvas(width, height)
	if m.NumAtoms() > 0 {
		pos := fitToCanvas(layoutMolecule(m), float64(width), float64(height))
		labels := atomLabels(m)
		drawBonds(c, m, pos, labels)
		drawLabels(c, m, pos, labels)
		for _, a := range arrows {
			drawArrow(c, pos[a.StartAtom], pos[a.EndAtom])
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// fitToCanvas scales layout coordinates to pixels and centres them.
func fitToCanvas(pos []point, width, height float64) []point {
	all := make([]int, len(pos))
	for i := range all {
		all[i] = i
	}
	minX, maxX, minY, maxY := bounds(pos, all)
	spanX := math.Max(maxX-minX, 1e-9)
	spanY := math.Max(maxY-minY, 1e-9)

	s := math.Min((width-2*margin)/spanX, (height-2*margin)/spanY)
	s = math.Min(s, maxBondPixels)
	if s <= 0 {
		s = 1
	}

	centre := point{(minX + maxX) / 2, (minY + maxY) / 2}
	mid := point{width / 2, height / 2}
	out := make([]point, len(pos))
	for i, p := range pos {
		out[i] = p.sub(centre).scale(s).add(mid)
	}
	return out
}

// atomLabels returns the text drawn for each atom; "" for carbons drawn as
// bare vertices. Heteroatoms, charged or isotopic atoms and isolated atoms
// are labelled.
func atomLabels(m *molecule.Molecule) []string {
	labels := make([]string, m.NumAtoms())
	for i := range labels {
		a := m.Atom(i)
		if a.Symbol == "C" && a.Charge == 0 && a.Isotope == 0 && m.Degree(i) > 0 {
			continue
		}
		label := a.Symbol
		if a.Isotope > 0 {
			label = strconv.Itoa(a.Isotope) + label
		}
		switch {
		case a.HCount == 1:
			label += "H"
		case a.HCount > 1:
			label += "H" + strconv.Itoa(a.HCount)
		}
		label += chargeSuffix(a.Charge)
		labels[i] = label
	}
	return labels
}

func chargeSuffix(charge int) string {
	switch {
	case charge == 1:
		return "+"
	case charge == -1:
		return "-"
	case charge > 1:
		return strconv.Itoa(charge) + "+"
	case charge < -1:
		return strconv.Itoa(-charge) + "-"
	}
	return ""
}

func drawBonds(c *canvas, m *molecule.Molecule, pos []point, labels []string) {
	for i := 0; i < m.NumBonds(); i++ {
		b := m.Bond(i)
		p, q := pos[b.Begin], pos[b.End]
		dir := q.sub(p).unit()
		if labels[b.Begin] != "" {
			p = p.add(dir.scale(labelTrim))
		}
		if labels[b.End] != "" {
			q = q.sub(dir.scale(labelTrim))
		}

		switch b.Order {
		case molecule.BondDouble:
			drawMultiple(c, m, pos, b, p, q, false)
		case molecule.BondAromatic:
			drawMultiple(c, m, pos, b, p, q, true)
		case molecule.BondTriple, molecule.BondQuadruple:
			n := perpendicular(dir).scale(bondSpacing + 0.5)
			c.line(p, q, bondWidth, bondColor)
			c.line(p.add(n), q.add(n), bondWidth, bondColor)
			c.line(p.sub(n), q.sub(n), bondWidth, bondColor)
		default:
			c.line(p, q, bondWidth, bondColor)
		}
	}
}

// drawMultiple draws a double or aromatic bond. The second line sits on the
// side where most neighboring atoms lie (inside a ring) and is shortened;
// when no side is preferred both lines straddle the bond axis.
func drawMultiple(c *canvas, m *molecule.Molecule, pos []point, b molecule.Bond, p, q point, aromatic bool) {
	axis := q.sub(p)
	n := perpendicular(axis.unit())

	side := 0.0
	for _, end := range []int{b.Begin, b.End} {
		for _, nb := range m.Neighbors(end) {
			if nb == b.Begin || nb == b.End {
				continue
			}
			side += math.Copysign(1, axis.cross(pos[nb].sub(pos[b.Begin])))
		}
	}

	if side == 0 && !aromatic {
		off := n.scale(bondSpacing / 2)
		c.line(p.add(off), q.add(off), bondWidth, bondColor)
		c.line(p.sub(off), q.sub(off), bondWidth, bondColor)
		return
	}
	if side < 0 {
		n = n.scale(-1)
	}

	c.line(p, q, bondWidth, bondColor)
	off := n.scale(bondSpacing * 1.3)
	ip, iq := lerp(p, q, 0.15).add(off), lerp(p, q, 0.85).add(off)
	if aromatic {
		c.dashed(ip, iq, bondWidth, 3, 2.5, bondColor)
		return
	}
	c.line(ip, iq, bondWidth, bondColor)
}

func drawLabels(c *canvas, m *molecule.Molecule, pos []point, labels []string) {
	for i, label := range labels {
		if label == "" {
			continue
		}
		c.text(label, pos[i], labelColor(m.Atom(i).Symbol))
	}
}

// drawArrow draws a curved arrow from start to end: a quadratic curve bowed
// to the left of the travel direction, with a filled head at end.
func drawArrow(c *canvas, start, end point) {
	chord := end.sub(start)
	bow := math.Max(chord.length()*0.5, 12)
	ctrl := lerp(start, end, 0.5).add(perpendicular(chord.unit()).scale(-bow))

	// Stop short of the atom centres so labels stay readable.
	start = lerp(start, ctrl, 0.15)
	tip := lerp(end, ctrl, 0.15)

	prev := start
	for k := 1; k <= arrowSegments; k++ {
		t := float64(k) / arrowSegments
		cur := quadBezier(start, ctrl, tip, t)
		c.line(prev, cur, arrowWidth, arrowColor)
		prev = cur
	}

	dir := tip.sub(ctrl).unit()
	back := tip.sub(dir.scale(arrowHead))
	w := perpendicular(dir).scale(arrowHead / 2)
	c.fill(arrowColor, tip, back.add(w), back.sub(w))
}

func quadBezier(p0, p1, p2 point, t float64) point {
	u := 1 - t
	return p0.scale(u * u).add(p1.scale(2 * u * t)).add(p2.scale(t * t))
}
