// Package loot implements the spawn-count generator from spec.md §4.5: how
// many new loot items a session should place this tick, given how much
// time passed, how much loot is already on the ground, and how many dogs
// are out collecting it.
//
// New logic — the teacher's single-player game has no spawn system — but
// kept deliberately small and RNG-explicit, matching the lack of any RNG
// abstraction library anywhere in the teacher or pack: just math/rand with
// a documented, reproducible seed, per spec.md §4.5/§9.
package loot

import (
	"math"
	"math/rand"

	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/model"
)

// maxDelta mirrors movement.MaxDelta; kept local so game/loot does not
// depend on game/movement (loot has no reason to know about motion
// resolution beyond this one shared constant).
const maxDelta = 0.4

// Generator produces a spawn count for one session. Its random source is
// deterministic given a seed, matching spec.md §9's note to keep the
// source's predictable-by-design seeding for testability rather than
// "fixing" it into something unpredictable.
type Generator struct {
	periodMs    float64
	probability float64
	rnd         *rand.Rand
}

// New creates a Generator for a loot period (milliseconds) and a
// per-period spawn probability, seeded deterministically by seed. Sessions
// seed this with their road count (spec.md §4.4 step 6), so two sessions
// built from the same map produce the same loot sequence.
func New(periodMs, probability float64, seed int64) *Generator {
	return &Generator{
		periodMs:    periodMs,
		probability: probability,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

// Generate returns how many new items to spawn this tick. It never returns
// more than the current deficit of loot versus looters (looterCount -
// lootCount), and never less than zero.
func (g *Generator) Generate(deltaMs float64, lootCount, looterCount int) int {
	possible := looterCount - lootCount
	if possible <= 0 {
		return 0
	}

	expected := float64(possible) * (1 - math.Pow(1-g.probability, deltaMs/g.periodMs))
	generated := int(expected)
	frac := expected - float64(generated)
	if g.rnd.Float64() < frac {
		generated++
	}

	if generated > possible {
		generated = possible
	}
	if generated < 0 {
		generated = 0
	}
	return generated
}

// Place picks a uniformly random point on a uniformly random road, jittered
// orthogonally within the road's own width, for one newly spawned item.
// It panics if roads is empty — a map with no roads cannot host loot, which
// is a configuration error, not a runtime one.
func (g *Generator) Place(roads []model.Road) geom.Position {
	if len(roads) == 0 {
		panic("loot: cannot place an item on a map with no roads")
	}

	r := roads[g.rnd.Intn(len(roads))]
	minX, maxX, minY, maxY := r.Bounds()

	jitter := (g.rnd.Float64()*2 - 1) * maxDelta
	if r.IsHorizontal() {
		x := float64(minX) + g.rnd.Float64()*float64(maxX-minX)
		return geom.Position{X: x, Y: float64(minY) + jitter}
	}
	y := float64(minY) + g.rnd.Float64()*float64(maxY-minY)
	return geom.Position{X: float64(minX) + jitter, Y: y}
}

// Type picks a uniformly random loot type in [0, lootTypes).
func (g *Generator) Type(lootTypes int) uint32 {
	if lootTypes <= 0 {
		return 0
	}
	return uint32(g.rnd.Intn(lootTypes))
}
