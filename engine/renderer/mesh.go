package renderer

// Vertex is the interleaved vertex layout consumed by the instanced shader (24 bytes).
type Vertex struct {
	Position [3]float32 // @location(0)
	Normal   [3]float32 // @location(1)
}

// VertexStride is the size of Vertex in bytes.
const VertexStride = 24

// CubeMesh returns a unit cube centered on the origin with per-face normals, wound counter-clockwise.
//
// Parameters:
//   - half: half of the cube's edge length
//
// Returns:
//   - []Vertex: 24 vertices, four per face
//   - []uint32: 36 triangle list indices
func CubeMesh(half float32) ([]Vertex, []uint32) {
	type face struct {
		normal [3]float32
		u, v   [3]float32
	}
	faces := [6]face{
		{normal: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
		{normal: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
		{normal: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			var p [3]float32
			for axis := 0; axis < 3; axis++ {
				p[axis] = (f.normal[axis] + c[0]*f.u[axis] + c[1]*f.v[axis]) * half
			}
			vertices = append(vertices, Vertex{Position: p, Normal: f.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
