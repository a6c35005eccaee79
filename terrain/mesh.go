package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMeshCellSize is the grid column width used by NewMesh when none is given
	DefaultMeshCellSize = 8.0

	intersectEpsilon = 1e-12
)

// Triangle is one face of a terrain mesh
type Triangle struct {
	A, B, C mgl64.Vec3
}

// Bounds returns the AABB of the triangle
func (t Triangle) Bounds() AABB {
	return EmptyAABB().Extend(t.A).Extend(t.B).Extend(t.C)
}

// intersectDown runs Möller–Trumbore for a ray going straight down.
// Both faces are considered so the winding order of the source mesh does not matter.
func (t Triangle) intersectDown(origin mgl64.Vec3) (float64, bool) {
	edge1 := t.B.Sub(t.A)
	edge2 := t.C.Sub(t.A)

	p := Down.Cross(edge2)
	det := edge1.Dot(p)
	if math.Abs(det) < intersectEpsilon {
		return 0, false
	}
	invDet := 1.0 / det

	s := origin.Sub(t.A)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := Down.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	distance := edge2.Dot(q) * invDet
	if distance < 0 {
		return 0, false
	}
	return distance, true
}

// Mesh is an arbitrary triangulated terrain indexed by a spatial hash
type Mesh struct {
	triangles []Triangle
	// triangle bounds, by triangle index
	boxes  []AABB
	grid   *Grid
	bounds AABB
}

// NewMesh indexes the triangles. cellSize <= 0 selects DefaultMeshCellSize.
func NewMesh(triangles []Triangle, cellSize float64) *Mesh {
	if cellSize <= 0 {
		cellSize = DefaultMeshCellSize
	}

	m := &Mesh{
		triangles: append([]Triangle(nil), triangles...),
		boxes:     make([]AABB, len(triangles)),
		grid:      NewGrid(cellSize, 2*len(triangles)),
		bounds:    EmptyAABB(),
	}

	for i, tri := range m.triangles {
		bounds := tri.Bounds()
		m.boxes[i] = bounds
		m.grid.Insert(i, bounds)
		m.bounds = m.bounds.Extend(bounds.Min).Extend(bounds.Max)
	}
	m.grid.Seal()

	return m
}

// Bounds returns the AABB of the whole mesh
func (m *Mesh) Bounds() AABB {
	return m.bounds
}

// Len returns the number of triangles
func (m *Mesh) Len() int {
	return len(m.triangles)
}

// CastDown returns the closest triangle below origin
func (m *Mesh) CastDown(origin mgl64.Vec3) (Hit, bool) {
	if !m.bounds.ContainsXZ(origin) || origin.Y() < m.bounds.Min.Y() {
		return Hit{}, false
	}

	// the segment swept by the ray down to the lowest triangle
	ray := AABB{Min: mgl64.Vec3{origin.X(), m.bounds.Min.Y(), origin.Z()}, Max: origin}

	best := math.Inf(1)
	for _, idx := range m.grid.Query(origin) {
		if !m.boxes[idx].Overlaps(ray) {
			continue
		}
		if distance, ok := m.triangles[idx].intersectDown(origin); ok && distance < best {
			best = distance
		}
	}
	if math.IsInf(best, 1) {
		return Hit{}, false
	}

	return Hit{Point: origin.Add(Down.Mul(best)), Distance: best}, true
}
