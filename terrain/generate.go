package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NoiseParams controls GenerateHeights
type NoiseParams struct {
	MinHeight float64
	MaxHeight float64
	// Seed shifts the noise lattice; equal seeds give equal terrains
	Seed float64
	// Hills is the number of bumps added on top of the base noise
	Hills int
}

// DefaultNoiseParams gives a gently rolling landscape a few tens of metres high
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		MinHeight: -5,
		MaxHeight: 25,
		Hills:     5,
	}
}

// hashNoise - pseudo-random value in [0, 1) for a lattice point
func hashNoise(x, y float64) float64 {
	h := math.Sin(x*12.9898+y*78.233) * 43758.5453
	return h - math.Floor(h)
}

func smoothstep(t float64) float64 {
	return t * t * (3.0 - 2.0*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// smoothNoise - bilinear interpolation of the lattice noise
func smoothNoise(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	nx0 := lerp(hashNoise(x0, y0), hashNoise(x0+1, y0), sx)
	nx1 := lerp(hashNoise(x0, y0+1), hashNoise(x0+1, y0+1), sx)

	return lerp(nx0, nx1, sy)
}

// GenerateHeights builds a deterministic fractal terrain of cols x rows vertices
func GenerateHeights(cols, rows int, params NoiseParams) []float64 {
	heights := make([]float64, cols*rows)
	if cols < 2 || rows < 2 {
		return heights
	}

	scales := []float64{1.0, 0.5, 0.25, 0.125, 0.0625}
	amplitudes := []float64{0.5, 0.25, 0.125, 0.0625, 0.03125}
	heightRange := params.MaxHeight - params.MinHeight

	type hill struct{ x, z, height, radius float64 }
	hills := make([]hill, params.Hills)
	for i := range hills {
		fi := float64(i) + params.Seed
		hills[i] = hill{
			x:      hashNoise(fi, 0.3) * float64(cols),
			z:      hashNoise(0.7, fi) * float64(rows),
			height: 0.5 + 0.5*hashNoise(fi*0.1, 0.5),
			radius: float64(min(cols, rows)) * (0.1 + 0.2*hashNoise(0.5, fi*0.1)),
		}
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			nx := float64(col)/float64(cols-1) + params.Seed
			nz := float64(row)/float64(rows-1) + params.Seed

			// Octaves of value noise for the base relief, in [0, 1)
			elevation := 0.0
			for layer, scale := range scales {
				elevation += smoothNoise(nx*scale*10.0, nz*scale*10.0) * amplitudes[layer]
			}
			elevation /= 0.96875

			for _, h := range hills {
				dx := float64(col) - h.x
				dz := float64(row) - h.z
				distance := math.Sqrt(dx*dx + dz*dz)
				if distance < h.radius {
					falloff := 1.0 - distance/h.radius
					elevation += h.height * falloff * falloff * 0.8
				}
			}

			heights[row*cols+col] = params.MinHeight + math.Min(elevation, 1.0)*heightRange
		}
	}

	return heights
}

// GenerateHeightField builds a height field centred on center
func GenerateHeightField(center mgl64.Vec3, cellSize float64, cols, rows int, params NoiseParams) (*HeightField, error) {
	origin := mgl64.Vec3{
		center.X() - 0.5*float64(cols-1)*cellSize,
		0,
		center.Z() - 0.5*float64(rows-1)*cellSize,
	}
	return NewHeightField(origin, cellSize, cols, rows, GenerateHeights(cols, rows, params))
}
