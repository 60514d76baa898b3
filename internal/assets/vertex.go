package assets

import "github.com/go-gl/mathgl/mgl32"

// Vertex is the interleaved vertex layout shared by the built-in quad and
// loaded OBJ meshes. Field order defines the GPU-side attribute offsets.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Quad returns the built-in textured quad: four corners in the XY plane,
// white-tinted, with full texture coverage, wound counter-clockwise.
func Quad() ([]Vertex, []uint32) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{-0.5, -0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{0.5, -0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{0, 1}},
	}
	indices := []uint32{0, 1, 2, 2, 3, 0}
	return vertices, indices
}
