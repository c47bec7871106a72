package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// maxOrbitElevation keeps the eye off the poles, where LookAt degenerates.
const maxOrbitElevation = 1.5

// clipCorrection remaps OpenGL clip depth [-1, 1] to the WebGPU range [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is a perspective camera looking at Center. Orbit moves Eye around it.
type Camera struct {
	Eye        mgl32.Vec3
	Center     mgl32.Vec3
	Up         mgl32.Vec3
	FovDegrees float32
	Near       float32
	Far        float32
}

// View returns the world to view matrix.
func (c Camera) View() mgl32.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(c.Eye, c.Center, up)
}

// Projection returns the perspective matrix with WebGPU depth range for the given aspect ratio.
func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	return clipCorrection.Mul4(mgl32.Perspective(mgl32.DegToRad(c.FovDegrees), aspect, c.Near, c.Far))
}

// ViewProjection returns Projection(aspect) * View().
func (c Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// Orbit rotates the eye around Center on a sphere of constant radius. Elevation is clamped short of
// straight up or down.
//
// Parameters:
//   - dAzimuth: change in azimuth in radians, positive turns right
//   - dElevation: change in elevation in radians, positive raises the eye
func (c *Camera) Orbit(dAzimuth, dElevation float32) {
	offset := c.Eye.Sub(c.Center)
	radius := offset.Len()
	if radius == 0 {
		return
	}
	azimuth := float32(math.Atan2(float64(offset.X()), float64(offset.Z()))) + dAzimuth
	elevation := float32(math.Asin(float64(offset.Y()/radius))) + dElevation
	elevation = min(max(elevation, -maxOrbitElevation), maxOrbitElevation)

	cosElev := float32(math.Cos(float64(elevation)))
	sinElev := float32(math.Sin(float64(elevation)))
	cosAzim := float32(math.Cos(float64(azimuth)))
	sinAzim := float32(math.Sin(float64(azimuth)))
	c.Eye = c.Center.Add(mgl32.Vec3{radius * cosElev * sinAzim, radius * sinElev, radius * cosElev * cosAzim})
}

// GroundRay casts a ray through the window pixel (x, y) and intersects it with the horizontal
// plane at the given height. It reports false when the ray is parallel to or points away from the plane.
//
// Parameters:
//   - x, y: cursor position in pixels, origin top-left
//   - width, height: viewport size in pixels
//   - planeY: height of the ground plane
//
// Returns:
//   - mgl32.Vec3: the hit point
//   - bool: whether the plane was hit
func (c Camera) GroundRay(x, y float32, width, height int, planeY float32) (mgl32.Vec3, bool) {
	if width <= 0 || height <= 0 {
		return mgl32.Vec3{}, false
	}
	// UnProject works in OpenGL conventions, so use the uncorrected projection.
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovDegrees), float32(width)/float32(height), c.Near, c.Far)
	view := c.View()
	winY := float32(height) - y

	near, err := mgl32.UnProject(mgl32.Vec3{x, winY, 0}, view, proj, 0, 0, width, height)
	if err != nil {
		return mgl32.Vec3{}, false
	}
	far, err := mgl32.UnProject(mgl32.Vec3{x, winY, 1}, view, proj, 0, 0, width, height)
	if err != nil {
		return mgl32.Vec3{}, false
	}

	dir := far.Sub(near)
	if dir.Y() == 0 {
		return mgl32.Vec3{}, false
	}
	t := (planeY - near.Y()) / dir.Y()
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return near.Add(dir.Mul(t)), true
}
