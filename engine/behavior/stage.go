package behavior

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
)

// Stage is the per-frame transform behavior pass. It updates every live Pose in place
// based on the entity's distance to the target singleton.
type Stage interface {
	// Schedule queues one behavior pass. The live set and target are read once the
	// dependencies complete. Without a target the pass leaves every pose untouched.
	//
	// Parameters:
	//   - dt: frame delta in seconds
	//   - deps: handles that must complete before any pose is read or written
	//
	// Returns:
	//   - job.Handle: completes once every pose has been updated
	Schedule(dt float32, deps ...job.Handle) job.Handle

	// Rules returns the rule constants in use.
	//
	// Returns:
	//   - Rules: the rules
	Rules() Rules
}

type stage struct {
	world      *population.World
	scheduler  job.Scheduler
	rules      Rules
	batchCount int
	logger     *slog.Logger
}

var _ Stage = &stage{}

// pass is the state shared between the snapshot job and the update batches of one Schedule call.
type pass struct {
	dt        float32
	movers    []population.Mover
	target    population.Target
	hasTarget bool
}

// NewStage creates a behavior Stage over world, running on scheduler.
//
// Parameters:
//   - world: the population to update
//   - scheduler: the job scheduler
//   - options: functional options applied during construction
//
// Returns:
//   - Stage: the new stage
func NewStage(world *population.World, scheduler job.Scheduler, options ...StageBuilderOption) Stage {
	s := &stage{
		world:      world,
		scheduler:  scheduler,
		rules:      DefaultRules(),
		batchCount: scheduler.BatchCount(),
		logger:     slog.Default(),
	}
	for _, option := range options {
		option(s)
	}
	s.logger = s.logger.With("component", "behavior")
	return s
}

func (s *stage) Rules() Rules {
	return s.rules
}

func (s *stage) Schedule(dt float32, deps ...job.Handle) job.Handle {
	p := &pass{dt: dt}
	snapshot := s.scheduler.Schedule("behavior.snapshot", func() {
		p.target, p.hasTarget = s.world.Target()
		if p.hasTarget {
			p.movers = s.world.Movers()
		}
	}, deps...)

	return s.scheduler.ScheduleBatched("behavior.update", func() int {
		return len(p.movers)
	}, s.batchCount, func(start, end int) {
		rules := s.rules
		for _, m := range p.movers[start:end] {
			*m.Pose = Step(*m.Pose, *m.Rest, m.Speed.Value, p.target, p.dt, rules)
		}
	}, snapshot)
}
