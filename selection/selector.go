// Package selection picks which attack animation an agent should play next.
package selection

import (
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/navigation"
)

// ErrMissingDependency is returned when the catalog or navigation query is nil.
var ErrMissingDependency = errors.New("selection: missing dependency")

const rollSides = 100

type quotaSlot struct {
	desc        *motion.Descriptor
	probability int
	remaining   int
}

// Selector is the per-agent selection state. It is not safe for concurrent
// use; each agent owns one.
type Selector struct {
	catalog  *motion.Catalog
	nav      navigation.Query
	category string
	filter   func(*motion.Descriptor) bool
	rng      *rand.Rand
	logger   *log.Logger

	built       bool
	independent []*quotaSlot
	plain       []*motion.Descriptor
	radial      []*motion.Descriptor
	lastUsed    *motion.Descriptor
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand injects the random source used for probability rolls and
// shuffling. Share one seeded source to make runs reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithFilter narrows the category further, e.g. with a compiled script.
func WithFilter(keep func(*motion.Descriptor) bool) Option {
	return func(s *Selector) {
		s.filter = keep
	}
}

// WithLogger sets the logger for selection decisions.
func WithLogger(logger *log.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a selector over one category of the catalog. An empty category
// uses the whole catalog.
func New(catalog *motion.Catalog, nav navigation.Query, category string, opts ...Option) (*Selector, error) {
	if catalog == nil || nav == nil {
		return nil, ErrMissingDependency
	}
	s := &Selector{
		catalog:  catalog,
		nav:      nav,
		category: category,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// build partitions the catalog on first use.
func (s *Selector) build() {
	if s.built {
		return
	}
	s.built = true
	s.independent = s.independent[:0]
	s.plain = s.plain[:0]
	s.radial = s.radial[:0]

	for _, d := range s.catalog.Category(s.category) {
		if s.filter != nil && !s.filter(d) {
			continue
		}
		switch p := d.Policy.(type) {
		case motion.DistanceIndependent:
			if p.Quota <= 0 {
				continue
			}
			s.independent = append(s.independent, &quotaSlot{desc: d, probability: p.Probability, remaining: p.Quota})
		case motion.DistanceDependent:
			s.plain = append(s.plain, d)
		case motion.Radial:
			s.radial = append(s.radial, d)
		}
	}
	sort.SliceStable(s.independent, func(i, j int) bool {
		return s.independent[i].probability > s.independent[j].probability
	})

	s.logger.Debug("selection pools built",
		"category", s.category,
		"independent", len(s.independent),
		"plain", len(s.plain),
		"radial", len(s.radial),
	)
}

// Reset restores every quota and forgets the last used descriptor.
func (s *Selector) Reset() {
	s.built = false
	s.lastUsed = nil
}

func (s *Selector) LastUsed() *motion.Descriptor {
	return s.lastUsed
}

// Remaining reports the uses left for a distance-independent descriptor. ok
// is false once the descriptor has left the pool or was never in it.
func (s *Selector) Remaining(name string) (int, bool) {
	s.build()
	for _, slot := range s.independent {
		if slot.desc.Name == name {
			return slot.remaining, true
		}
	}
	return 0, false
}

// SelectBestMotion returns the descriptor to play next. false means nothing
// is viable and the calling action must abort.
func (s *Selector) SelectBestMotion(self, target common.Pose, basedOnTarget bool, desiredDistance float64) (*motion.Descriptor, bool) {
	s.build()

	if d, ok := s.rollIndependent(self); ok {
		return s.use(d, "independent"), true
	}

	best, bestScore := s.pickPlain(self, target, basedOnTarget, desiredDistance)
	if basedOnTarget {
		if d, score, ok := s.pickRadial(self, target, desiredDistance); ok && score < bestScore {
			best = d
		}
	}
	if best != nil {
		return s.use(best, "distance"), true
	}

	if s.lastUsed != nil && s.repeatable(s.lastUsed) {
		return s.use(s.lastUsed, "repeat"), true
	}

	for _, d := range s.plain {
		if d.IsStationary() {
			return s.use(d, "stationary"), true
		}
	}

	s.logger.Debug("no viable motion", "category", s.category)
	return nil, false
}

// repeatable excludes distance-independent descriptors: they are only ever
// handed out by a successful roll so their quota holds.
func (s *Selector) repeatable(d *motion.Descriptor) bool {
	_, independent := d.Policy.(motion.DistanceIndependent)
	return !independent
}

func (s *Selector) use(d *motion.Descriptor, reason string) *motion.Descriptor {
	s.lastUsed = d
	s.logger.Debug("motion selected", "name", d.Name, "reason", reason)
	return d
}

// rollIndependent walks the probability-ordered pool, stops at the first
// reachable descriptor and rolls once for it.
func (s *Selector) rollIndependent(self common.Pose) (*motion.Descriptor, bool) {
	for i, slot := range s.independent {
		if !s.reachable(slot.desc.Destination(self)) {
			continue
		}
		roll := s.rng.IntN(rollSides) + 1
		if roll > slot.probability {
			s.logger.Debug("roll missed", "name", slot.desc.Name, "roll", roll, "probability", slot.probability)
			return nil, false
		}
		slot.remaining--
		if slot.remaining <= 0 {
			s.independent = append(s.independent[:i], s.independent[i+1:]...)
			s.logger.Debug("quota exhausted", "name", slot.desc.Name)
		}
		return slot.desc, true
	}
	return nil, false
}

// pickPlain ranks the plain pool in shuffled order. Without a target the first
// reachable candidate wins and the returned score is +Inf.
func (s *Selector) pickPlain(self, target common.Pose, basedOnTarget bool, desiredDistance float64) (*motion.Descriptor, float64) {
	order := append([]*motion.Descriptor(nil), s.plain...)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	var best *motion.Descriptor
	bestScore := math.Inf(1)
	for _, d := range order {
		if d == s.lastUsed {
			continue
		}
		dest := d.Destination(self)
		if !s.reachable(dest) {
			continue
		}
		if !basedOnTarget {
			return d, bestScore
		}
		if score := distanceScore(dest, target.Position, desiredDistance); score < bestScore {
			best, bestScore = d, score
		}
	}
	return best, bestScore
}

func (s *Selector) pickRadial(self, target common.Pose, desiredDistance float64) (*motion.Descriptor, float64, bool) {
	var best *motion.Descriptor
	bestScore := math.Inf(1)
	for _, d := range s.radial {
		if d == s.lastUsed {
			continue
		}
		radius := d.Policy.(motion.Radial).ImpactRadius
		dest := d.Destination(self)
		if !s.reachable(dest) {
			continue
		}
		score, ok := radialScore(dest, target.Position, radius, desiredDistance)
		if ok && score < bestScore {
			best, bestScore = d, score
		}
	}
	return best, bestScore, best != nil
}

func (s *Selector) reachable(p mgl64.Vec3) bool {
	ok, _ := s.nav.IsReachable(p)
	return ok
}

func distanceScore(dest, target mgl64.Vec3, desired float64) float64 {
	return math.Abs(dest.Sub(target).Len() - desired)
}

// radialScore weights the distance error by how central the target sits in
// the impact area. ok is false when the target is outside the radius.
func radialScore(dest, target mgl64.Vec3, radius, desired float64) (float64, bool) {
	d := dest.Sub(target).Len()
	if radius <= 0 || d > radius {
		return 0, false
	}
	accuracy := 1 - d/radius
	return math.Abs(d-desired) * accuracy, true
}
