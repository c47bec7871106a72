package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCamera() Camera {
	return Camera{
		Eye:        mgl32.Vec3{0, 60, 90},
		Center:     mgl32.Vec3{0, 0, 0},
		FovDegrees: 60,
		Near:       0.1,
		Far:        1000,
	}
}

func TestCamera_ProjectionUsesZeroToOneDepth(t *testing.T) {
	cam := testCamera()
	proj := cam.Projection(1)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -cam.Near, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -cam.Far, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-4)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-4)
}

func TestCamera_GroundRayThroughCenterHitsLookTarget(t *testing.T) {
	cam := testCamera()
	hit, ok := cam.GroundRay(800, 450, 1600, 900, 0)
	require.True(t, ok)
	assert.InDelta(t, 0, hit.X(), 0.5)
	assert.InDelta(t, 0, hit.Y(), 1e-3)
	assert.InDelta(t, 0, hit.Z(), 0.5)
}

func TestCamera_GroundRayLeftOfCenterHitsNegativeX(t *testing.T) {
	cam := testCamera()
	hit, ok := cam.GroundRay(400, 450, 1600, 900, 0)
	require.True(t, ok)
	assert.Less(t, hit.X(), float32(0))
}

func TestCamera_GroundRayMissesAboveHorizon(t *testing.T) {
	cam := Camera{Eye: mgl32.Vec3{0, 10, 0}, Center: mgl32.Vec3{0, 10, -1}, FovDegrees: 60, Near: 0.1, Far: 1000}
	_, ok := cam.GroundRay(800, 0, 1600, 900, 0)
	assert.False(t, ok)

	_, ok = cam.GroundRay(0, 0, 0, 0, 0)
	assert.False(t, ok)
}

func TestCamera_OrbitKeepsRadiusAndClampsElevation(t *testing.T) {
	cam := testCamera()
	radius := cam.Eye.Sub(cam.Center).Len()

	cam.Orbit(float32(math.Pi/2), 0)
	assert.InDelta(t, radius, cam.Eye.Sub(cam.Center).Len(), 1e-3)
	assert.InDelta(t, 90, cam.Eye.X(), 1e-3)
	assert.InDelta(t, 60, cam.Eye.Y(), 1e-3)
	assert.InDelta(t, 0, cam.Eye.Z(), 1e-3)

	cam.Orbit(0, 10)
	assert.InDelta(t, radius*float32(math.Sin(maxOrbitElevation)), cam.Eye.Y(), 1e-3)

	still := Camera{Eye: mgl32.Vec3{1, 1, 1}, Center: mgl32.Vec3{1, 1, 1}}
	still.Orbit(1, 1)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, still.Eye)
}
