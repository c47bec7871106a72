package population

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Pose is the mutable world transform of an entity.
type Pose struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    float32
}

// Matrix returns the TRS matrix translate(Position) * rotate(Rotation) * scale(Scale).
func (p Pose) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z()).
		Mul4(p.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(p.Scale, p.Scale, p.Scale))
}

// Speed is the per-entity interpolation rate. Write-once.
type Speed struct {
	Value float32
}

// RestPose is the resting transform captured at spawn time. Write-once.
type RestPose struct {
	Matrix mgl32.Mat4
}

// NewRestPose captures p as a rest transform.
func NewRestPose(p Pose) RestPose {
	return RestPose{Matrix: p.Matrix()}
}

// Translation returns the translation column of the rest matrix.
func (r RestPose) Translation() mgl32.Vec3 {
	return r.Matrix.Col(3).Vec3()
}

// Scale returns the uniform scale of the rest matrix, taken from the length of its first basis column.
func (r RestPose) Scale() float32 {
	return r.Matrix.Col(0).Vec3().Len()
}

// Rotation returns the rotation of the rest matrix with scale divided out.
func (r RestPose) Rotation() mgl32.Quat {
	s := r.Scale()
	if s == 0 {
		return mgl32.QuatIdent()
	}
	inv := 1 / s
	var m mgl32.Mat4
	m.SetCol(0, r.Matrix.Col(0).Mul(inv))
	m.SetCol(1, r.Matrix.Col(1).Mul(inv))
	m.SetCol(2, r.Matrix.Col(2).Mul(inv))
	m.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	return mgl32.Mat4ToQuat(m).Normalize()
}

// Pose returns the rest transform decomposed into a Pose.
func (r RestPose) Pose() Pose {
	return Pose{
		Position: r.Translation(),
		Rotation: r.Rotation(),
		Scale:    r.Scale(),
	}
}

// Color is a linear RGB color. Its 12-byte layout matches the shader's colorBuffer element.
type Color struct {
	R, G, B float32
}

// Target is the singleton point entities approach when within Radius of it.
type Target struct {
	Position mgl32.Vec3
	Radius   float32
}
