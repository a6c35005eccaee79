package terrain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HeightField is a regular grid of ground heights.
// Each cell is split into two triangles along the (x0,z1)-(x1,z0) diagonal.
type HeightField struct {
	Origin   mgl64.Vec3 // world position of vertex (0, 0); Y is ignored
	CellSize float64
	Cols     int // vertices along X
	Rows     int // vertices along Z
	// Heights is row-major: Heights[row*Cols+col]
	Heights []float64
	bounds  AABB
}

// NewHeightField validates the grid and computes its bounds
func NewHeightField(origin mgl64.Vec3, cellSize float64, cols, rows int, heights []float64) (*HeightField, error) {
	if cols < 2 || rows < 2 {
		return nil, fmt.Errorf("height field needs at least 2x2 vertices, got %dx%d", cols, rows)
	}
	if !(cellSize > 0) {
		return nil, fmt.Errorf("invalid cell size: %v", cellSize)
	}
	if len(heights) != cols*rows {
		return nil, fmt.Errorf("height field expects %d heights, got %d", cols*rows, len(heights))
	}

	h := &HeightField{
		Origin:   mgl64.Vec3{origin.X(), 0, origin.Z()},
		CellSize: cellSize,
		Cols:     cols,
		Rows:     rows,
		Heights:  append([]float64(nil), heights...),
	}

	h.bounds = EmptyAABB()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			h.bounds = h.bounds.Extend(h.vertex(col, row))
		}
	}

	return h, nil
}

func (h *HeightField) vertex(col, row int) mgl64.Vec3 {
	return mgl64.Vec3{
		h.Origin.X() + float64(col)*h.CellSize,
		h.Heights[row*h.Cols+col],
		h.Origin.Z() + float64(row)*h.CellSize,
	}
}

// Bounds returns the AABB of the field
func (h *HeightField) Bounds() AABB {
	return h.bounds
}

// cell locates the cell containing (x, z) and the local coordinates inside it
func (h *HeightField) cell(x, z float64) (col, row int, fx, fz float64, ok bool) {
	gx := (x - h.Origin.X()) / h.CellSize
	gz := (z - h.Origin.Z()) / h.CellSize
	if gx < 0 || gz < 0 || gx > float64(h.Cols-1) || gz > float64(h.Rows-1) {
		return 0, 0, 0, 0, false
	}

	col = min(int(math.Floor(gx)), h.Cols-2)
	row = min(int(math.Floor(gz)), h.Rows-2)
	return col, row, gx - float64(col), gz - float64(row), true
}

// HeightAt returns the ground height under (x, z)
func (h *HeightField) HeightAt(x, z float64) (float64, bool) {
	col, row, fx, fz, ok := h.cell(x, z)
	if !ok {
		return 0, false
	}

	h00 := h.Heights[row*h.Cols+col]
	h10 := h.Heights[row*h.Cols+col+1]
	h01 := h.Heights[(row+1)*h.Cols+col]
	h11 := h.Heights[(row+1)*h.Cols+col+1]

	if fx+fz <= 1 {
		return h00 + (h10-h00)*fx + (h01-h00)*fz, true
	}
	return h11 + (h01-h11)*(1-fx) + (h10-h11)*(1-fz), true
}

// CastDown returns the ground point below origin. Points under the ground do not hit.
func (h *HeightField) CastDown(origin mgl64.Vec3) (Hit, bool) {
	height, ok := h.HeightAt(origin.X(), origin.Z())
	if !ok || origin.Y() < height {
		return Hit{}, false
	}

	return Hit{
		Point:    mgl64.Vec3{origin.X(), height, origin.Z()},
		Distance: origin.Y() - height,
	}, true
}

// Triangles returns the triangulation used by HeightAt
func (h *HeightField) Triangles() []Triangle {
	triangles := make([]Triangle, 0, 2*(h.Cols-1)*(h.Rows-1))
	for row := 0; row < h.Rows-1; row++ {
		for col := 0; col < h.Cols-1; col++ {
			v00 := h.vertex(col, row)
			v10 := h.vertex(col+1, row)
			v01 := h.vertex(col, row+1)
			v11 := h.vertex(col+1, row+1)
			triangles = append(triangles,
				Triangle{A: v00, B: v01, C: v10},
				Triangle{A: v11, B: v10, C: v01},
			)
		}
	}
	return triangles
}
