package spatial

import (
	"math"
	"slices"
)

const (
	DefaultDistance        = 400.0
	DefaultHitRadius       = 100.0
	DefaultCollisionRadius = 50.0
	DefaultMaxRadius       = 500.0
	DefaultMinRadius       = 100.0

	spiralRadius    = 400.0
	spiralStep      = math.Pi / 3 // 60 degrees
	spiralHeight    = 50.0
	spiralFrequency = 0.3
)

// Locatable is anything with a position in room space.
type Locatable interface {
	Location() Vec3
}

// Hit is a candidate found by a proximity query.
type Hit[T Locatable] struct {
	Item     T
	Distance float64
}

// Validation is the outcome of checking a proposed placement.
type Validation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// Mapper converts screen taps to room space and answers proximity questions.
type Mapper struct {
	distance        float64
	hitRadius       float64
	collisionRadius float64
	maxRadius       float64
	minRadius       float64
}

func NewMapper(opts ...MapperOpt) *Mapper {
	m := &Mapper{
		distance:        DefaultDistance,
		hitRadius:       DefaultHitRadius,
		collisionRadius: DefaultCollisionRadius,
		maxRadius:       DefaultMaxRadius,
		minRadius:       DefaultMinRadius,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// HitRadius is the radius used when a tap is tested against existing objects.
func (m *Mapper) HitRadius() float64 {
	return m.hitRadius
}

// ScreenToWorld maps a normalized screen tap onto the room sphere at the
// default distance.
func (m *Mapper) ScreenToWorld(screenX, screenY float64) Vec3 {
	return m.ScreenToWorldAt(screenX, screenY, m.distance)
}

// ScreenToWorldAt maps a normalized screen tap ([0,1]x[0,1]) onto a sphere of
// radius d. The centre of the screen maps to the top of the sphere.
func (m *Mapper) ScreenToWorldAt(screenX, screenY, d float64) Vec3 {
	phi := (screenX - 0.5) * 2 * math.Pi
	theta := (screenY - 0.5) * math.Pi

	return Vec3{
		X: d * math.Sin(theta) * math.Cos(phi),
		Y: d * math.Cos(theta),
		Z: d * math.Sin(theta) * math.Sin(phi),
	}
}

// NearestWithin returns every candidate within radius of pos, closest first.
func NearestWithin[T Locatable](pos Vec3, radius float64, candidates []T) []Hit[T] {
	var hits []Hit[T]
	for _, c := range candidates {
		d := pos.DistanceTo(c.Location())
		if d <= radius {
			hits = append(hits, Hit[T]{Item: c, Distance: d})
		}
	}

	slices.SortStableFunc(hits, func(a, b Hit[T]) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	return hits
}

// Validate checks a proposed placement against its neighbours and the room
// bounds. Every check runs; the placement is valid only if none complain.
func (m *Mapper) Validate(pos Vec3, neighbours []Vec3) Validation {
	var issues []string

	for _, n := range neighbours {
		if pos.DistanceTo(n) < m.collisionRadius {
			issues = append(issues, "too close to existing content")
			break
		}
	}

	centre := pos.Length()
	if centre > m.maxRadius {
		issues = append(issues, "too far from the room centre")
	}
	if centre < m.minRadius {
		issues = append(issues, "too close to the room centre")
	}

	return Validation{Valid: len(issues) == 0, Issues: issues}
}

// SpiralPosition is the default placement for the i-th object (0-based) of a
// room. Sequential indexes walk around the room so adds do not collide.
func SpiralPosition(i int) Vec3 {
	angle := float64(i) * spiralStep
	return Vec3{
		X: spiralRadius * math.Cos(angle),
		Y: math.Sin(float64(i)*spiralFrequency) * spiralHeight,
		Z: spiralRadius * math.Sin(angle),
	}
}
