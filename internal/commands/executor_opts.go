package commands

import (
	"time"

	"github.com/pixil98/go-palace/internal/imagegen"
)

type ExecutorOpt func(*Executor)

// WithImageGenerator enables room images. Without it rooms never get one.
func WithImageGenerator(g ImageGenerator) ExecutorOpt {
	return func(e *Executor) {
		e.images.gen = g
	}
}

func WithImageMode(m ImageMode) ExecutorOpt {
	return func(e *Executor) {
		e.images.mode = m
	}
}

func WithImageSize(s imagegen.Size) ExecutorOpt {
	return func(e *Executor) {
		e.images.size = s
	}
}

// WithStyleSuffix appends an aesthetic hint to every image prompt.
func WithStyleSuffix(suffix string) ExecutorOpt {
	return func(e *Executor) {
		e.images.suffix = suffix
	}
}

func WithImageTimeout(d time.Duration) ExecutorOpt {
	return func(e *Executor) {
		e.images.timeout = d
	}
}
