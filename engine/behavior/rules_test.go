package behavior

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restAt(p mgl32.Vec3) population.RestPose {
	return population.NewRestPose(population.Pose{Position: p, Rotation: mgl32.QuatIdent(), Scale: 1})
}

func TestApproachMonotonicallyCloses(t *testing.T) {
	target := population.Target{Position: mgl32.Vec3{5, 0, 0}, Radius: 10}
	rest := restAt(mgl32.Vec3{})
	pose := rest.Pose()

	prev := target.Position.Sub(pose.Position).Len()
	for i := 0; i < 600; i++ {
		pose = Step(pose, rest, 2, target, 1.0/60, DefaultRules())
		d := target.Position.Sub(pose.Position).Len()
		if prev > 1e-4 {
			require.Less(t, d, prev, "step %d", i)
		}
		prev = d
	}
	assert.InDelta(t, 0, prev, 1e-3)
	assert.InDelta(t, DefaultApproachScale, pose.Scale, 1e-3)
}

func TestApproachTurnsTowardTarget(t *testing.T) {
	target := population.Target{Position: mgl32.Vec3{10, 0, 0}, Radius: 100}
	rest := restAt(mgl32.Vec3{})
	pose := rest.Pose()

	for i := 0; i < 20; i++ {
		pose = Step(pose, rest, 1, target, 1, DefaultRules())
		if pose.Position.ApproxEqual(target.Position) {
			break
		}
	}
	forward := pose.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 1, forward.X(), 1e-3)
}

func TestReturnMonotonicallyClosesThenSnaps(t *testing.T) {
	target := population.Target{Position: mgl32.Vec3{100, 0, 0}, Radius: 1}
	rest := restAt(mgl32.Vec3{1, 0, 1})
	pose := population.Pose{
		Position: mgl32.Vec3{10, 0, 0},
		Rotation: mgl32.QuatRotate(1.2, mgl32.Vec3{0, 1, 0}),
		Scale:    0.1,
	}

	restPos := rest.Translation()
	prev := restPos.Sub(pose.Position).Len()
	snapped := false
	for i := 0; i < 500; i++ {
		wasWithin := prev < DefaultSnapThreshold
		pose = Step(pose, rest, 1, target, 1.0/60, DefaultRules())
		d := restPos.Sub(pose.Position).Len()
		if wasWithin {
			assert.Equal(t, rest.Translation(), pose.Position)
			assert.Equal(t, rest.Rotation(), pose.Rotation)
			assert.Equal(t, rest.Scale(), pose.Scale)
			snapped = true
			break
		}
		require.Less(t, d, prev, "step %d", i)
		prev = d
	}
	assert.True(t, snapped, "pose never came within the snap threshold")
}

func TestReturnIsFasterThanApproach(t *testing.T) {
	rest := restAt(mgl32.Vec3{})
	start := population.Pose{Position: mgl32.Vec3{4, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: 1}

	in := Step(start, rest, 1, population.Target{Position: mgl32.Vec3{0, 0, 0}, Radius: 10}, 0.01, DefaultRules())
	out := Step(start, rest, 1, population.Target{Position: mgl32.Vec3{0, 0, 100}, Radius: 1}, 0.01, DefaultRules())

	assert.InDelta(t, 4-0.04, in.Position.X(), 1e-5)
	assert.InDelta(t, 4-0.2, out.Position.X(), 1e-5)
}

func TestBoundaryAtRadiusTakesReturnBranch(t *testing.T) {
	rest := restAt(mgl32.Vec3{})
	pose := population.Pose{Position: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: 1}
	target := population.Target{Position: mgl32.Vec3{4, 0, 0}, Radius: 3}

	got := Step(pose, rest, 1, target, 0.1, DefaultRules())

	// return branch moves toward rest (x decreases), approach would move toward the target
	assert.Less(t, got.Position.X(), float32(1))
	assert.Equal(t, float32(1), got.Scale)
}

func TestSnapThresholdIsExclusive(t *testing.T) {
	rest := restAt(mgl32.Vec3{})
	pose := population.Pose{Position: mgl32.Vec3{0.2, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: 1}
	noTarget := population.Target{Position: mgl32.Vec3{100, 0, 0}, Radius: 1}

	got := Step(pose, rest, 1, noTarget, 0.01, DefaultRules())
	assert.InDelta(t, 0.2*(1-0.05), got.Position.X(), 1e-6, "interpolated, not snapped")
	assert.NotEqual(t, float32(0), got.Position.X())

	pose.Position = mgl32.Vec3{0.19, 0, 0}
	got = Step(pose, rest, 1, noTarget, 0.01, DefaultRules())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, got.Position)
}

func TestRateIsClamped(t *testing.T) {
	rest := restAt(mgl32.Vec3{})
	pose := population.Pose{Position: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: 1}
	target := population.Target{Position: mgl32.Vec3{3, 0, 0}, Radius: 5}

	got := Step(pose, rest, 100, target, 1, DefaultRules())
	assert.True(t, got.Position.ApproxEqual(target.Position), "t is clamped to 1 and never overshoots")
}
