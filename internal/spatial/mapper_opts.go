package spatial

type MapperOpt func(*Mapper)

// WithDistance sets the sphere radius taps are projected onto
func WithDistance(d float64) MapperOpt {
	return func(m *Mapper) {
		m.distance = d
	}
}

// WithHitRadius sets the radius used to select an existing object from a tap
func WithHitRadius(r float64) MapperOpt {
	return func(m *Mapper) {
		m.hitRadius = r
	}
}

// WithCollisionRadius sets the minimum spacing between placed objects
func WithCollisionRadius(r float64) MapperOpt {
	return func(m *Mapper) {
		m.collisionRadius = r
	}
}

// WithBounds sets the allowed distance band from the room centre
func WithBounds(inner, outer float64) MapperOpt {
	return func(m *Mapper) {
		m.minRadius = inner
		m.maxRadius = outer
	}
}
