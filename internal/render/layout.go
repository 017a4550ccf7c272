package render

import (
	"math"

	"github.com/roach88/arrowpush/internal/molecule"
)

// point is a 2D coordinate, in bond-length units during layout and in
// pixels once scaled.
type point struct {
	X, Y float64
}

func (p point) add(q point) point { return point{p.X + q.X, p.Y + q.Y} }
func (p point) sub(q point) point { return point{p.X - q.X, p.Y - q.Y} }
func (p point) scale(f float64) point { return point{p.X * f, p.Y * f} }
func (p point) length() float64 { return math.Hypot(p.X, p.Y) }
func (p point) cross(q point) float64 { return p.X*q.Y - p.Y*q.X }
func polar(angle, r float64) point { return point{r * math.Cos(angle), r * math.Sin(angle)} }
func lerp(p, q point, t float64) point { return p.add(q.sub(p).scale(t)) }
func perpendicular(p point) point { return point{-p.Y, p.X} }
func (p point) unit() point {
	l := p.length()
	if l == 0 {
		return point{}
	}
	return p.scale(1 / l)
}

const (
	refineIterations = 200
	springStrength   = 0.5
	repelStrength    = 0.2
	repelRange       = 2.5
	maxStep          = 0.2
	componentGap     = 1.5
)

// layoutMolecule computes 2D coordinates for every atom.
//
// Each connected component is placed breadth-first from its lowest atom,
// refined with a fixed number of spring/repulsion steps, then laid out left
// to right. No randomness is involved: equal input gives equal output.
func layoutMolecule(m *molecule.Molecule) []point {
	pos := make([]point, m.NumAtoms())
	offsetX := 0.0
	for _, comp := range m.Components() {
		placeComponent(m, comp, pos)
		refine(m, comp, pos)

		minX, maxX, minY, maxY := bounds(pos, comp)
		shift := point{offsetX - minX, -(minY + maxY) / 2}
		for _, a := range comp {
			pos[a] = pos[a].add(shift)
		}
		offsetX += (maxX - minX) + componentGap
	}
	return pos
}

// placeComponent assigns initial coordinates by BFS. Each atom's unplaced
// neighbors fan out away from the atom it was reached from; single children
// alternate sides so chains zig-zag.
func placeComponent(m *molecule.Molecule, comp []int, pos []point) {
	root := comp[0]
	placed := make(map[int]bool, len(comp))
	toParent := make(map[int]float64, len(comp))
	depth := make(map[int]int, len(comp))

	pos[root] = point{}
	placed[root] = true
	toParent[root] = math.Pi
	queue := []int{root}

	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]

		var children []int
		for _, nb := range m.Neighbors(a) {
			if !placed[nb] {
				children = append(children, nb)
			}
		}
		if len(children) == 0 {
			continue
		}

		in := toParent[a]
		for j, c := range children {
			var angle float64
			switch {
			case len(children) == 1 && depth[a]%2 == 0:
				angle = in + 2*math.Pi/3
			case len(children) == 1:
				angle = in - 2*math.Pi/3
			default:
				angle = in + 2*math.Pi*float64(j+1)/float64(len(children)+1)
			}
			pos[c] = pos[a].add(polar(angle, 1))
			placed[c] = true
			toParent[c] = angle + math.Pi
			depth[c] = depth[a] + 1
			queue = append(queue, c)
		}
	}
}

// refine relaxes the component: bonded pairs are pulled toward unit
// length, non-bonded pairs closer than repelRange push apart. The step
// shrinks linearly so the layout settles.
func refine(m *molecule.Molecule, comp []int, pos []point) {
	if len(comp) < 2 {
		return
	}
	disp := make([]point, len(comp))
	for iter := 0; iter < refineIterations; iter++ {
		for i := range disp {
			disp[i] = point{}
		}
		for i := 0; i < len(comp); i++ {
			for j := i + 1; j < len(comp); j++ {
				a, b := comp[i], comp[j]
				d := pos[b].sub(pos[a])
				dist := d.length()
				if dist < 1e-6 {
					d = point{1e-3 * float64(j-i), 1e-3}
					dist = d.length()
				}
				dir := d.scale(1 / dist)

				var f float64
				if m.BondBetween(a, b) >= 0 {
					f = springStrength * (dist - 1)
				} else if dist < repelRange {
					f = -repelStrength / (dist * dist)
				}
				disp[i] = disp[i].add(dir.scale(f))
				disp[j] = disp[j].sub(dir.scale(f))
			}
		}

		cool := 1 - float64(iter)/refineIterations
		for i, a := range comp {
			step := disp[i].scale(0.1 * cool)
			if l := step.length(); l > maxStep {
				step = step.scale(maxStep / l)
			}
			pos[a] = pos[a].add(step)
		}
	}
}

func bounds(pos []point, atoms []int) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, a := range atoms {
		p := pos[a]
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, maxX, minY, maxY
}
