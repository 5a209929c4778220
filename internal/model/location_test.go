package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_WithCoordinates(t *testing.T) {
	orig := NewLocation(1, 2, 3)
	moved := orig.WithCoordinates(10, 20, 30)

	assert.Equal(t, Location{X: 10, Y: 20, Z: 30}, moved)
	assert.Equal(t, Location{X: 1, Y: 2, Z: 3}, orig, "original must not change")
}

func TestLocation_DistanceSquared(t *testing.T) {
	tests := []struct {
		name string
		a, b Location
		want int64
	}{
		{"same point", NewLocation(5, 5, 5), NewLocation(5, 5, 5), 0},
		{"planar", NewLocation(0, 0, 0), NewLocation(3, 4, 0), 25},
		{"with height", NewLocation(0, 0, 0), NewLocation(1, 2, 2), 9},
		{"negative", NewLocation(-3, 0, 0), NewLocation(0, -4, 0), 25},
		{"far apart", NewLocation(-100000, 0, 0), NewLocation(100000, 0, 0), 40000000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.DistanceSquared(tt.b))
			assert.Equal(t, tt.want, tt.b.DistanceSquared(tt.a))
		})
	}
}

func TestLocation_Distance2DIgnoresHeight(t *testing.T) {
	a := NewLocation(0, 0, 0)
	b := NewLocation(3, 4, 1000)
	assert.InDelta(t, 5.0, a.Distance2D(b), 1e-9)
}

func BenchmarkLocation_DistanceSquared(b *testing.B) {
	l1 := NewLocation(100, 200, 300)
	l2 := NewLocation(400, 500, 600)
	for b.Loop() {
		_ = l1.DistanceSquared(l2)
	}
}
