package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Neighbor is a search hit: the ordinal of the matching vector and its Euclidean distance.
type Neighbor struct {
	Index    int
	Distance float64
}

// FlatL2 is an exact nearest-neighbour index over fixed-dimension vectors.
// It is not safe for concurrent mutation; the Manager only mutates indexes that
// have not been published yet.
type FlatL2 struct {
	dimension int
	vectors   [][]float32
}

func NewFlatL2(dimension int) *FlatL2 {
	return &FlatL2{dimension: dimension}
}

func (f *FlatL2) Dimension() int { return f.dimension }

func (f *FlatL2) Len() int { return len(f.vectors) }

// Add appends vectors. Either all vectors are added or none.
func (f *FlatL2) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dimension {
			return fmt.Errorf("%w: vector %d has %d values, index expects %d",
				ErrDimensionMismatch, i, len(v), f.dimension)
		}
	}
	for _, v := range vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		f.vectors = append(f.vectors, cp)
	}
	return nil
}

// Search returns up to k nearest vectors ordered by ascending distance.
// Equal distances keep insertion order.
func (f *FlatL2) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d",
			ErrDimensionMismatch, len(query), f.dimension)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Neighbor, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Neighbor{Index: i, Distance: euclidean(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
