package population

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestRestPoseDecomposition(t *testing.T) {
	p := Pose{
		Position: mgl32.Vec3{3, -2, 7},
		Rotation: mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0}),
		Scale:    2.5,
	}
	rest := NewRestPose(p)

	assert.True(t, rest.Translation().ApproxEqual(p.Position))
	assert.InDelta(t, 2.5, rest.Scale(), 1e-5)
	assert.True(t, rest.Rotation().ApproxEqualThreshold(p.Rotation, 1e-5) ||
		rest.Rotation().ApproxEqualThreshold(p.Rotation.Scale(-1), 1e-5))

	assert.True(t, rest.Pose().Matrix().ApproxEqualThreshold(rest.Matrix, 1e-5))
}

func TestPoseMatrixIsTRS(t *testing.T) {
	p := Pose{Position: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.QuatIdent(), Scale: 2}
	m := p.Matrix()

	got := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.True(t, got.ApproxEqual(mgl32.Vec4{3, 2, 3, 1}))
}
