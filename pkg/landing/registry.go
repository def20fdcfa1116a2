// Package landing hands out landing positions around servers so that
// arriving drones do not stack on top of each other.
package landing

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
)

const (
	DefaultInnerRadius = 50.0
	DefaultSpacing     = 40.0
	DefaultAttempts    = 10
)

// Params tunes the allocator.
type Params struct {
	InnerRadius float64 // candidates are never closer than this to the server
	Spacing     float64 // minimum distance to every previously allocated spot
	Attempts    int     // random candidates tried before falling back to the center
}

// DefaultParams returns the reference allocator settings.
func DefaultParams() Params {
	return Params{
		InnerRadius: DefaultInnerRadius,
		Spacing:     DefaultSpacing,
		Attempts:    DefaultAttempts,
	}
}

// Registry is the history of allocated landing spots of a session.
// The history is append-only unless Release is used, so a long run slowly
// runs out of room and more and more drones get the server center.
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	rng    *rand.Rand
	params Params
	spots  []geometry.Point2D
}

// NewRegistry creates an empty registry drawing candidates from rng.
func NewRegistry(rng *rand.Rand, params Params) *Registry {
	if params.Attempts <= 0 {
		params.Attempts = DefaultAttempts
	}
	return &Registry{rng: rng, params: params}
}

// Allocate picks a free spot in the annulus [InnerRadius, radius] around
// center. The first candidate at least Spacing away from every recorded spot
// is recorded and returned. When every attempt collides, center itself is
// returned and nothing is recorded.
// If radius does not exceed InnerRadius, candidates sit exactly on InnerRadius.
func (r *Registry) Allocate(center geometry.Point2D, radius float64) geometry.Point2D {
	r.mu.Lock()
	defer r.mu.Unlock()

	band := math.Max(0, radius-r.params.InnerRadius)
	spacingSq := r.params.Spacing * r.params.Spacing

	for i := 0; i < r.params.Attempts; i++ {
		angle := r.rng.Float64() * 2 * math.Pi
		dist := r.params.InnerRadius + r.rng.Float64()*band
		candidate := center.Add(geometry.Polar(dist, angle))

		if r.isFree(candidate, spacingSq) {
			r.spots = append(r.spots, candidate)
			return candidate
		}
	}
	return center
}

func (r *Registry) isFree(candidate geometry.Point2D, spacingSq float64) bool {
	for _, spot := range r.spots {
		if candidate.DistanceSquaredTo(spot) < spacingSq {
			return false
		}
	}
	return true
}

// Release forgets a previously allocated spot. It reports whether the spot was found.
func (r *Registry) Release(spot geometry.Point2D) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.spots {
		if s.Eq(spot) {
			r.spots = append(r.spots[:i], r.spots[i+1:]...)
			return true
		}
	}
	return false
}

// Reset clears the history.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.spots = nil
	r.mu.Unlock()
}

// Spots returns a copy of the recorded spots in allocation order.
func (r *Registry) Spots() []geometry.Point2D {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]geometry.Point2D, len(r.spots))
	copy(out, r.spots)
	return out
}

// Len returns the number of recorded spots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spots)
}
