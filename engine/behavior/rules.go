package behavior

import (
	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/go-gl/mathgl/mgl32"
)

// Default rule constants.
const (
	DefaultApproachScale    float32 = 0.1
	DefaultSnapThreshold    float32 = 0.2
	DefaultReturnMultiplier float32 = 5
)

// Rules holds the constants of the approach/return state machine.
type Rules struct {
	// ApproachScale is the uniform scale entities shrink toward inside the target radius.
	ApproachScale float32
	// SnapThreshold is the distance from rest below which an entity snaps to its rest pose.
	SnapThreshold float32
	// ReturnMultiplier scales the interpolation rate on the way back to rest.
	ReturnMultiplier float32
}

// DefaultRules returns the stock rule set.
func DefaultRules() Rules {
	return Rules{
		ApproachScale:    DefaultApproachScale,
		SnapThreshold:    DefaultSnapThreshold,
		ReturnMultiplier: DefaultReturnMultiplier,
	}
}

// Step advances a single pose by dt. Inside the target radius (strictly) the pose turns toward,
// moves toward and shrinks toward the target at rate speed*dt. Outside it the pose returns to
// rest at rate speed*dt*ReturnMultiplier until it is closer than SnapThreshold, at which point it
// is assigned the rest translation, rotation and scale exactly. Distances are compared squared.
//
// Parameters:
//   - pose: the current pose
//   - rest: the entity's rest transform
//   - speed: the entity's interpolation rate
//   - target: the target singleton
//   - dt: frame delta in seconds
//   - r: rule constants
//
// Returns:
//   - population.Pose: the updated pose
func Step(pose population.Pose, rest population.RestPose, speed float32, target population.Target, dt float32, r Rules) population.Pose {
	toTarget := target.Position.Sub(pose.Position)
	if toTarget.Dot(toTarget) < target.Radius*target.Radius {
		t := common.Clamp01(speed * dt)
		if look, ok := lookRotation(toTarget); ok {
			pose.Rotation = mgl32.QuatSlerp(pose.Rotation, look, t)
		}
		pose.Position = pose.Position.Add(toTarget.Mul(t))
		pose.Scale = lerp(pose.Scale, r.ApproachScale, t)
		return pose
	}

	restPos := rest.Translation()
	toRest := restPos.Sub(pose.Position)
	if toRest.Dot(toRest) >= r.SnapThreshold*r.SnapThreshold {
		t := common.Clamp01(speed * dt * r.ReturnMultiplier)
		pose.Position = pose.Position.Add(toRest.Mul(t))
		pose.Rotation = mgl32.QuatSlerp(pose.Rotation, rest.Rotation(), t)
		pose.Scale = lerp(pose.Scale, rest.Scale(), t)
		return pose
	}

	return population.Pose{
		Position: restPos,
		Rotation: rest.Rotation(),
		Scale:    rest.Scale(),
	}
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// lookRotation returns the rotation that maps +Z onto dir with +Y kept as close to up as possible.
func lookRotation(dir mgl32.Vec3) (mgl32.Quat, bool) {
	if dir.Dot(dir) < 1e-12 {
		return mgl32.Quat{}, false
	}
	forward := dir.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	right := up.Cross(forward)
	if right.Dot(right) < 1e-12 {
		return mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, forward), true
	}
	right = right.Normalize()
	up = forward.Cross(right)

	var m mgl32.Mat4
	m.SetCol(0, right.Vec4(0))
	m.SetCol(1, up.Vec4(0))
	m.SetCol(2, forward.Vec4(0))
	m.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	return mgl32.Mat4ToQuat(m).Normalize(), true
}
